package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/shopspring/decimal"
)

// DispatchService is the orchestrator boundary exposed over HTTP.
type DispatchService interface {
	Dispatch(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error)
	ResendForOrder(ctx context.Context, orderID int64, channelType domain.Channel, message string) (*domain.Notification, error)
	MarkSent(ctx context.Context, id string) (*domain.Notification, error)
	GetAll(ctx context.Context) ([]domain.Notification, error)
	GetByCustomer(ctx context.Context, customerID int64) ([]domain.Notification, error)
	GetByOrder(ctx context.Context, orderID int64) (*domain.Notification, error)
	GetByChannel(ctx context.Context, channelType domain.Channel) ([]domain.Notification, error)
	GetUnsent(ctx context.Context) ([]domain.Notification, error)
}

type NotificationHandler struct {
	service DispatchService
}

func NewNotificationHandler(service DispatchService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service DispatchService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications/send", h.SendNotification)
	v1.Post("/notifications/send-order/:orderId", h.SendOrderNotification)
	v1.Get("/notifications", h.ListNotifications)
	v1.Get("/notifications/unsent", h.ListUnsent)
	v1.Get("/notifications/customer/:customerId", h.ListByCustomer)
	v1.Get("/notifications/order/:orderId", h.GetByOrder)
	v1.Get("/notifications/channel/:channel", h.ListByChannel)
	v1.Put("/notifications/:id/mark-sent", h.MarkSent)

	return nil
}

type sendNotificationRequest struct {
	CustomerID     int64           `json:"customerId"`
	OrderID        int64           `json:"orderId"`
	ProductID      int64           `json:"productId"`
	OrderReference string          `json:"orderReference"`
	Message        string          `json:"message"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
	PaymentMethod  string          `json:"paymentMethod"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Channel        string          `json:"channel"`
}

type notificationResponse struct {
	ID             string          `json:"id"`
	CustomerID     int64           `json:"customerId"`
	OrderID        int64           `json:"orderId"`
	ProductID      int64           `json:"productId,omitempty"`
	OrderReference string          `json:"orderReference,omitempty"`
	Message        string          `json:"message"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	ProductName    string          `json:"productName,omitempty"`
	Channel        string          `json:"channel"`
	Sent           bool            `json:"sent"`
	SentAt         time.Time       `json:"sentAt"`
}

func (h *NotificationHandler) SendNotification(c *fiber.Ctx) error {
	var req sendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	channelType, err := domain.ParseChannelFromString(req.Channel)
	if err != nil {
		return toHTTPError(err)
	}

	notification, err := h.service.Dispatch(c.Context(), domain.NotificationRequest{
		CustomerID:     req.CustomerID,
		OrderID:        req.OrderID,
		ProductID:      req.ProductID,
		OrderReference: strings.TrimSpace(req.OrderReference),
		Message:        req.Message,
		Email:          strings.TrimSpace(req.Email),
		Address:        strings.TrimSpace(req.Address),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		Price:          req.Price,
		Quantity:       req.Quantity,
		Channel:        channelType,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func (h *NotificationHandler) SendOrderNotification(c *fiber.Ctx) error {
	orderID, err := parseInt64Param(c, "orderId")
	if err != nil {
		return toHTTPError(err)
	}

	channelType, err := domain.ParseChannelFromString(c.Query("type"))
	if err != nil {
		return toHTTPError(err)
	}

	message := strings.TrimSpace(c.Query("message"))
	if message == "" {
		return toHTTPError(fmt.Errorf("%w: message is required", domain.ErrValidation))
	}

	notification, err := h.service.ResendForOrder(c.Context(), orderID, channelType, message)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	notifications, err := h.service.GetAll(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponses(notifications))
}

func (h *NotificationHandler) ListUnsent(c *fiber.Ctx) error {
	notifications, err := h.service.GetUnsent(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponses(notifications))
}

func (h *NotificationHandler) ListByCustomer(c *fiber.Ctx) error {
	customerID, err := parseInt64Param(c, "customerId")
	if err != nil {
		return toHTTPError(err)
	}

	notifications, err := h.service.GetByCustomer(c.Context(), customerID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponses(notifications))
}

func (h *NotificationHandler) GetByOrder(c *fiber.Ctx) error {
	orderID, err := parseInt64Param(c, "orderId")
	if err != nil {
		return toHTTPError(err)
	}

	notification, err := h.service.GetByOrder(c.Context(), orderID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func (h *NotificationHandler) ListByChannel(c *fiber.Ctx) error {
	channelType, err := domain.ParseChannelFromString(c.Params("channel"))
	if err != nil {
		return toHTTPError(err)
	}

	notifications, err := h.service.GetByChannel(c.Context(), channelType)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponses(notifications))
}

func (h *NotificationHandler) MarkSent(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return toHTTPError(fmt.Errorf("%w: notification id is required", domain.ErrValidation))
	}

	notification, err := h.service.MarkSent(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func parseInt64Param(c *fiber.Ctx, name string) (int64, error) {
	raw := strings.TrimSpace(c.Params(name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return value, nil
}

func toNotificationResponses(notifications []domain.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}
	return responses
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	if n == nil {
		return notificationResponse{}
	}

	return notificationResponse{
		ID:             n.ID,
		CustomerID:     n.CustomerID,
		OrderID:        n.OrderID,
		ProductID:      n.ProductID,
		OrderReference: n.OrderReference,
		Message:        n.Message,
		Email:          n.Email,
		Address:        n.Address,
		PaymentMethod:  n.PaymentMethod,
		Price:          n.Price,
		Quantity:       n.Quantity,
		ProductName:    n.ProductName,
		Channel:        n.Channel.String(),
		Sent:           n.Sent,
		SentAt:         n.SentAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
