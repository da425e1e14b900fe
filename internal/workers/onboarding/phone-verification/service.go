package phoneverification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/metrics"
	"erate-tracker/internal/common/validation"
)

const TaskType = "onboarding.phone-verification"

const markPhoneVerified = `UPDATE accounts SET phone = $2, phone_verified_at = NOW() WHERE id = $1`

type Service struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	sns    SNSService
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config, db *sql.DB, redisClient *redis.Client) *Service {
	return &Service{
		config: config,
		db:     db,
		redis:  redisClient,
		sns:    deps.SNS,
		logger: deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Send texts a fresh code to the phone. A second send for the same number
// inside the cooldown window is refused with the time left.
func (s *Service) Send(ctx context.Context, input *SendInput) (*SendOutput, error) {
	phone, err := validation.NormalizePhone(input.Phone, s.config.DefaultCountryCode)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	requestID := uuid.NewString()
	cooldownKey := s.config.cooldownKey(input.AccountID, phone)
	codeKey := s.config.codeKey(input.AccountID, phone)

	if s.config.ResendCooldown > 0 {
		acquired, err := s.redis.SetNX(ctx, cooldownKey, requestID, s.config.ResendCooldown).Result()
		if err != nil {
			return nil, apperrors.NewVerificationSendFailedError(fmt.Errorf("acquire cooldown: %w", err))
		}
		if !acquired {
			remaining, err := s.redis.TTL(ctx, cooldownKey).Result()
			if err != nil || remaining <= 0 {
				remaining = s.config.ResendCooldown
			}
			return nil, apperrors.NewVerificationCooldownError(remaining)
		}
	}

	code, err := generateCode(s.config.CodeLength)
	if err != nil {
		s.release(ctx, cooldownKey)
		return nil, apperrors.NewVerificationSendFailedError(err)
	}

	if err := s.redis.Set(ctx, codeKey, code, s.config.CodeTTL).Err(); err != nil {
		s.release(ctx, cooldownKey)
		return nil, apperrors.NewVerificationSendFailedError(fmt.Errorf("store code: %w", err))
	}

	if err := s.sendSMS(ctx, phone, code); err != nil {
		s.release(ctx, cooldownKey, codeKey)
		return nil, apperrors.NewVerificationSendFailedError(fmt.Errorf("sms: %w", err))
	}

	metrics.VerificationCodesSent.Inc()
	s.logger.Info("verification code sent", map[string]interface{}{
		"accountId": input.AccountID,
		"requestId": requestID,
		"phone":     maskPhone(phone),
	})

	return &SendOutput{
		RequestID:   requestID,
		Phone:       phone,
		ExpiresIn:   int(s.config.CodeTTL / time.Second),
		ResendAfter: int(s.config.ResendCooldown / time.Second),
	}, nil
}

// Verify checks code against the one last sent to the phone. A wrong or
// expired code is a normal negative outcome; attempts are not limited.
func (s *Service) Verify(ctx context.Context, input *VerifyInput) (*VerifyOutput, error) {
	phone, err := validation.NormalizePhone(input.Phone, s.config.DefaultCountryCode)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	codeKey := s.config.codeKey(input.AccountID, phone)
	stored, err := s.redis.Get(ctx, codeKey).Result()
	if errors.Is(err, redis.Nil) {
		metrics.VerificationAttempts.WithLabelValues("expired").Inc()
		return &VerifyOutput{Verified: false}, nil
	}
	if err != nil {
		return nil, apperrors.NewVerificationCheckFailedError(err)
	}

	code := strings.TrimSpace(input.Code)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		metrics.VerificationAttempts.WithLabelValues("mismatch").Inc()
		return &VerifyOutput{Verified: false}, nil
	}

	res, err := s.db.ExecContext(ctx, markPhoneVerified, input.AccountID, phone)
	if err != nil {
		return nil, apperrors.NewVerificationCheckFailedError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperrors.NewAccountNotFoundError(input.AccountID)
	}

	s.release(ctx, codeKey, s.config.cooldownKey(input.AccountID, phone))
	metrics.VerificationAttempts.WithLabelValues("verified").Inc()

	s.logger.Info("phone verified", map[string]interface{}{
		"accountId": input.AccountID,
		"phone":     maskPhone(phone),
	})

	return &VerifyOutput{Verified: true}, nil
}

func (s *Service) sendSMS(ctx context.Context, phone, code string) error {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.config.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.config.SenderID),
		}
	}

	_, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(smsBody(code, s.config.CodeTTL)),
		MessageAttributes: attrs,
	})
	return err
}

func (s *Service) release(ctx context.Context, keys ...string) {
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("failed to clear verification keys", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}

func smsBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your E-Rate Tracker verification code is %s. It expires in %d minutes.",
		code, int(ttl/time.Minute))
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// maskPhone keeps the last four digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
