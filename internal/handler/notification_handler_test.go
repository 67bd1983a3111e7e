package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/ordercore/notification-orchestrator/internal/transport"
	"go.uber.org/zap"
)

type stubDispatchService struct {
	dispatchFn func(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error)
	resendFn   func(ctx context.Context, orderID int64, channelType domain.Channel, message string) (*domain.Notification, error)
	markSentFn func(ctx context.Context, id string) (*domain.Notification, error)
	byOrderFn  func(ctx context.Context, orderID int64) (*domain.Notification, error)
}

func (s *stubDispatchService) Dispatch(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	if s.dispatchFn != nil {
		return s.dispatchFn(ctx, req)
	}
	return &domain.Notification{ID: "n-1", Channel: req.Channel}, nil
}

func (s *stubDispatchService) ResendForOrder(ctx context.Context, orderID int64, channelType domain.Channel, message string) (*domain.Notification, error) {
	if s.resendFn != nil {
		return s.resendFn(ctx, orderID, channelType, message)
	}
	return &domain.Notification{ID: "n-1", OrderID: orderID, Channel: channelType, Message: message}, nil
}

func (s *stubDispatchService) MarkSent(ctx context.Context, id string) (*domain.Notification, error) {
	if s.markSentFn != nil {
		return s.markSentFn(ctx, id)
	}
	return &domain.Notification{ID: id, Sent: true}, nil
}

func (s *stubDispatchService) GetAll(context.Context) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (s *stubDispatchService) GetByCustomer(context.Context, int64) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (s *stubDispatchService) GetByOrder(ctx context.Context, orderID int64) (*domain.Notification, error) {
	if s.byOrderFn != nil {
		return s.byOrderFn(ctx, orderID)
	}
	return &domain.Notification{ID: "n-1", OrderID: orderID}, nil
}

func (s *stubDispatchService) GetByChannel(context.Context, domain.Channel) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (s *stubDispatchService) GetUnsent(context.Context) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func newTestApp(t *testing.T, svc DispatchService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	if err := RegisterNotificationRoutes(app, svc); err != nil {
		t.Fatalf("RegisterNotificationRoutes() error = %v", err)
	}
	return app
}

func performRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("http.NewRequest() error = %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}
	_ = resp.Body.Close()

	return resp, payload
}

func TestSendNotificationEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubDispatchService{
		dispatchFn: func(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
			if err := req.Validate(); err != nil {
				return nil, err
			}
			return &domain.Notification{
				ID:         "n-created",
				CustomerID: req.CustomerID,
				Channel:    req.Channel,
				Email:      req.Email,
				Sent:       true,
			}, nil
		},
	}
	app := newTestApp(t, svc)

	body := `{"customerId":42,"orderId":1001,"message":"hello","email":"a@b.c","channel":"email"}`
	resp, payload := performRequest(t, app, http.MethodPost, "/v1/notifications/send", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, payload)
	}

	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if got["id"] != "n-created" {
		t.Fatalf("id = %v", got["id"])
	}
	if got["channel"] != "EMAIL" {
		t.Fatalf("channel = %v, want EMAIL", got["channel"])
	}
	if got["sent"] != true {
		t.Fatalf("sent = %v", got["sent"])
	}
}

func TestSendNotificationValidationErrorsMapTo400(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubDispatchService{
		dispatchFn: func(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
			return nil, fmt.Errorf("%w: email address is required for email notifications", domain.ErrValidation)
		},
	})

	body := `{"customerId":42,"channel":"email","email":""}`
	resp, payload := performRequest(t, app, http.MethodPost, "/v1/notifications/send", body)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", resp.StatusCode, payload)
	}

	badChannel := `{"customerId":42,"channel":"pigeon","email":"a@b.c"}`
	resp, _ = performRequest(t, app, http.MethodPost, "/v1/notifications/send", badChannel)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown channel", resp.StatusCode)
	}
}

func TestSendOrderNotificationEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubDispatchService{
		resendFn: func(ctx context.Context, orderID int64, channelType domain.Channel, message string) (*domain.Notification, error) {
			if orderID != 1001 {
				t.Fatalf("orderID = %d, want 1001", orderID)
			}
			if channelType != domain.ChannelEmail {
				t.Fatalf("channel = %s, want EMAIL", channelType)
			}
			return &domain.Notification{ID: "n-1", OrderID: orderID, Message: message, Sent: true}, nil
		},
	}
	app := newTestApp(t, svc)

	resp, payload := performRequest(t, app, http.MethodPost, "/v1/notifications/send-order/1001?type=email&message=order+delayed", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, payload)
	}

	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if got["message"] != "order delayed" {
		t.Fatalf("message = %v", got["message"])
	}
}

func TestSendOrderNotificationRejectsBadInput(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubDispatchService{})

	// Missing message.
	resp, _ := performRequest(t, app, http.MethodPost, "/v1/notifications/send-order/1001?type=email", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing message", resp.StatusCode)
	}

	// Non-numeric order id.
	resp, _ = performRequest(t, app, http.MethodPost, "/v1/notifications/send-order/abc?type=email&message=hi", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad order id", resp.StatusCode)
	}

	// Unknown channel.
	resp, _ = performRequest(t, app, http.MethodPost, "/v1/notifications/send-order/1001?type=fax&message=hi", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown channel", resp.StatusCode)
	}
}

func TestGetByOrderNotFoundMapsTo404(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubDispatchService{
		byOrderFn: func(ctx context.Context, orderID int64) (*domain.Notification, error) {
			return nil, domain.ErrNotFound
		},
	})

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/notifications/order/999", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListByChannelRejectsUnknownChannel(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubDispatchService{})

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/notifications/channel/telegraph", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/notifications/channel/sms", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMarkSentEndpoint(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &stubDispatchService{
		markSentFn: func(ctx context.Context, id string) (*domain.Notification, error) {
			if id == "missing" {
				return nil, domain.ErrNotFound
			}
			return &domain.Notification{ID: id, Sent: true}, nil
		},
	})

	resp, payload := performRequest(t, app, http.MethodPut, "/v1/notifications/n-7/mark-sent", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, payload)
	}

	resp, _ = performRequest(t, app, http.MethodPut, "/v1/notifications/missing/mark-sent", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
