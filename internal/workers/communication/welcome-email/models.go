package welcomeemail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ses"

	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

type Input struct {
	AccountID string      `json:"accountId"`
	Role      models.Role `json:"role"`
	Email     string      `json:"email"`
}

type Output struct {
	Sent           bool   `json:"welcomeEmailSent"`
	NotificationID string `json:"notificationId"`
	MessageID      string `json:"messageId,omitempty"`
}

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	SES    SESService
}
