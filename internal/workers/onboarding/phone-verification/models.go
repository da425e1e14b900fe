package phoneverification

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	"erate-tracker/internal/common/logger"
)

type SendInput struct {
	AccountID string `json:"accountId"`
	Phone     string `json:"phone"`
}

type SendOutput struct {
	RequestID   string `json:"requestId"`
	Phone       string `json:"phone"`
	ExpiresIn   int    `json:"expiresInSeconds"`
	ResendAfter int    `json:"resendAfterSeconds"`
}

type VerifyInput struct {
	AccountID string `json:"accountId"`
	Phone     string `json:"phone"`
	Code      string `json:"code"`
}

type VerifyOutput struct {
	Verified bool `json:"verified"`
}

// SNSService is the slice of the SNS client used to deliver codes.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	SNS    SNSService
}
