package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultGatewayTimeout = 10 * time.Second

type gatewayRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// WebhookSender posts messages to an HTTP delivery gateway. It backs the
// SMS and push channels, whose providers expose webhook-style APIs.
type WebhookSender struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookSender(endpoint string) (*WebhookSender, error) {
	client := resty.New()
	client.SetTimeout(defaultGatewayTimeout)
	client.SetRetryCount(0)

	return NewWebhookSenderWithClient(endpoint, client)
}

func NewWebhookSenderWithClient(endpoint string, client *resty.Client) (*WebhookSender, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("gateway endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid gateway endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultGatewayTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookSender{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (s *WebhookSender) Send(ctx context.Context, to string, subject string, body string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("sender is not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return &ChannelError{Message: "recipient is required", Transient: false}
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(gatewayRequest{To: to, Subject: subject, Body: body}).
		Post(s.endpoint)
	if err != nil {
		return &ChannelError{
			Message:   "gateway request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return &ChannelError{
			Message:   "gateway returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &ChannelError{
		StatusCode: statusCode,
		Message:    gatewayErrorMessage(statusCode, strings.TrimSpace(response.String())),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func gatewayErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("gateway returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
