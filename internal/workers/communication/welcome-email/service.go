package welcomeemail

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"

	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/validation"
	"erate-tracker/internal/models"
)

type Service struct {
	config *Config
	ses    SESService
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		ses:    deps.SES,
		logger: deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !validation.ValidateEmail(input.Email) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid email address: %s", input.Email))
	}

	notificationID := uuid.NewString()

	if !s.config.SESEnabled || s.ses == nil {
		s.logger.Info("email delivery disabled, skipping welcome email", map[string]interface{}{
			"accountId":      input.AccountID,
			"notificationId": notificationID,
		})
		return &Output{Sent: false, NotificationID: notificationID}, nil
	}

	subject, text, html := s.render(input.Role)

	out, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{input.Email}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(s.config.FromEmail),
	})
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("welcome-email", err)
	}

	output := &Output{Sent: true, NotificationID: notificationID}
	if out != nil && out.MessageId != nil {
		output.MessageID = *out.MessageId
	}

	s.logger.Info("welcome email sent", map[string]interface{}{
		"accountId":      input.AccountID,
		"notificationId": notificationID,
		"messageId":      output.MessageID,
	})

	return output, nil
}

var roleBlurbs = map[models.Role]string{
	models.RoleApplicant:  "We will keep an eye on your funding requests and tell you when their status changes.",
	models.RoleConsultant: "We will watch every client FRN you track and send you a summary of what changed.",
	models.RoleVendor:     "We will track the FRNs you serve and remind you before invoice deadlines.",
}

func (s *Service) render(role models.Role) (subject, text, html string) {
	link := strings.TrimSuffix(s.config.AppBaseURL, "/") + s.config.Destinations[string(role)]
	blurb := roleBlurbs[role]

	subject = "Welcome to E-Rate Tracker"
	text = fmt.Sprintf("Your account is ready.\n\n%s\n\nOpen your dashboard: %s\n", blurb, link)
	html = fmt.Sprintf(`<p>Your account is ready.</p><p>%s</p><p><a href="%s">Open your dashboard</a></p>`, blurb, link)
	return subject, text, html
}
