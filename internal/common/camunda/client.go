// internal/common/camunda/client.go
package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "erate-tracker/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProcessStarter starts process instances. Implemented by *Client.
type ProcessStarter interface {
	CreateProcessInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (int64, error)
}

type createInstanceFunc func(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (*pb.CreateProcessInstanceResponse, error)

// Client wraps the Zeebe gRPC client. Failures come back as StandardErrors
// and transient ones are retried with exponential backoff.
type Client struct {
	client zbc.Client
	config *ClientConfig
	create createInstanceFunc
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig is used when ClientConfig.RetryConfig is nil.
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClientWithConfig creates a client and checks the broker topology.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	c := &Client{client: zeebeClient, config: config}
	c.create = c.sendCreateInstance
	return c, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// CreateProcessInstance starts the latest version of bpmnProcessID and
// returns the instance key.
func (c *Client) CreateProcessInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (int64, error) {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	var resp *pb.CreateProcessInstanceResponse
	err := c.withRetry(ctx, "create-process-instance", func(ctx context.Context) error {
		var err error
		resp, err = c.create(ctx, bpmnProcessID, variables)
		return err
	})
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, apperrors.NewExternalServiceError("zeebe", fmt.Errorf("empty response starting %s", bpmnProcessID))
	}
	return resp.GetProcessInstanceKey(), nil
}

func (c *Client) sendCreateInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (*pb.CreateProcessInstanceResponse, error) {
	cmd, err := c.client.NewCreateInstanceCommand().
		BPMNProcessId(bpmnProcessID).
		LatestVersion().
		VariablesFromMap(variables)
	if err != nil {
		return nil, apperrors.NewValidationError("process variables: " + err.Error())
	}
	return cmd.Send(ctx)
}

// withRetry runs fn until it succeeds, fails with a code that is not
// retryable, or runs out of attempts. The returned error is always a
// StandardError.
func (c *Client) withRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	retry := c.config.RetryConfig
	if retry == nil {
		retry = DefaultRetryConfig
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		mapped := mapZeebeError(err, operation, attempt+1)
		if !mapped.Retryable || !apperrors.IsRetryableErrorCode(mapped.Code) || attempt >= retry.MaxRetries {
			return mapped
		}

		delay := retry.BaseDelay * time.Duration(1<<attempt)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return apperrors.NewTimeoutError("zeebe",
				fmt.Errorf("%s abandoned after %d attempts: %w", operation, attempt+1, ctx.Err()))
		}
	}
}

// mapZeebeError turns a gateway failure into a StandardError keyed on its
// gRPC status code.
func mapZeebeError(err error, operation string, attempts int) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	cause := fmt.Errorf("%s failed (attempt %d): %w", operation, attempts, err)

	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("zeebe", cause)
	}

	st, ok := status.FromError(err)
	if !ok {
		return apperrors.NewExternalServiceError("zeebe", cause)
	}

	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return apperrors.NewExternalServiceError("zeebe", cause)
	case codes.DeadlineExceeded:
		return apperrors.NewTimeoutError("zeebe", cause)
	case codes.NotFound:
		return apperrors.NewResourceNotFoundError("zeebe", cause.Error())
	case codes.InvalidArgument, codes.FailedPrecondition:
		return apperrors.NewValidationError(cause.Error())
	case codes.AlreadyExists:
		return apperrors.NewBusinessRuleError("Process instance already exists", cause.Error())
	case codes.Unauthenticated, codes.PermissionDenied:
		return apperrors.NewAuthenticationError(cause.Error())
	default:
		mapped := apperrors.NewExternalServiceError("zeebe", cause)
		mapped.Retryable = false
		return mapped
	}
}
