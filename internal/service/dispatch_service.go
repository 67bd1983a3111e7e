package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ordercore/notification-orchestrator/internal/channel"
	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/ordercore/notification-orchestrator/internal/enrichment"
	"github.com/ordercore/notification-orchestrator/internal/observability"
	"github.com/ordercore/notification-orchestrator/internal/repository"
	"github.com/ordercore/notification-orchestrator/internal/resilience"
	"go.uber.org/zap"
)

const (
	// Operation names carried by the resilience registry. Breaker,
	// limiter and bulkhead state are independent per name.
	OpNotificationSend = "notification-send"
	OpOrderResend      = "order-resend"

	dispatchSubject = "Order Notification"
	resendSubject   = "Order Update"

	dispatchFallbackMessage = "Fallback: Notification could not be sent"
	resendFallbackMessage   = "Fallback: Unable to send order update"

	defaultSendTimeout = 10 * time.Second
)

// ContextResolver is the enrichment boundary consumed by dispatch.
type ContextResolver interface {
	ResolveOrder(ctx context.Context, orderID int64) *enrichment.OrderContext
	ResolveProductName(ctx context.Context, productID int64) string
}

// DispatchService sequences validation, enrichment, persistence, sending
// and fallback for every notification attempt. Downstream failures never
// escape it: callers receive a Notification or a typed fatal error.
type DispatchService struct {
	notifications repository.NotificationRepository
	resolver      ContextResolver
	senders       *channel.SenderRegistry
	policies      *resilience.Registry
	logger        *zap.Logger
	metrics       *observability.Metrics
	sendTimeout   time.Duration
	now           func() time.Time
}

func NewDispatchService(
	notifications repository.NotificationRepository,
	resolver ContextResolver,
	senders *channel.SenderRegistry,
	policies *resilience.Registry,
	sendTimeout time.Duration,
	logger *zap.Logger,
) (*DispatchService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if senders == nil {
		return nil, fmt.Errorf("sender registry is required")
	}
	if policies == nil {
		return nil, fmt.Errorf("resilience registry is required")
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		notifications: notifications,
		resolver:      resolver,
		senders:       senders,
		policies:      policies,
		logger:        logger,
		sendTimeout:   sendTimeout,
		now:           time.Now,
	}, nil
}

func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
	s.policies.SetMetrics(metrics)
}

// Dispatch turns a notification request into a persisted, delivered (or
// fallback) outcome. Validation failures propagate before anything is
// persisted; everything downstream of validation terminates in a stored
// record.
func (s *DispatchService) Dispatch(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	log := observability.WithContextLogger(s.logger, ctx)
	log.Info("dispatching notification",
		zap.Int64("customerId", req.CustomerID),
		zap.Int64("orderId", req.OrderID),
		zap.String("channel", req.Channel.String()),
	)

	if err := req.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.IncDispatch(req.Channel.String(), "validation_failed")
		}
		return nil, err
	}

	pending := s.buildPending(ctx, req)
	if err := s.notifications.Create(ctx, &pending); err != nil {
		return nil, fmt.Errorf("failed to persist pending notification: %w", err)
	}

	sender, ok := s.senders.Get(req.Channel)
	if !ok {
		log.Warn("no sender registered for channel, leaving record pending",
			zap.String("channel", req.Channel.String()),
		)
		if s.metrics != nil {
			s.metrics.IncDispatch(req.Channel.String(), "pending")
		}
		return &pending, nil
	}

	return s.sendAndFinalize(ctx, pending, sender, OpNotificationSend, dispatchSubject, pending.Message, dispatchFallbackMessage)
}

// ResendForOrder re-delivers the latest notification for an order with a
// new message. A missing record is fatal; send failures degrade to the
// fallback outcome like first-time dispatch.
func (s *DispatchService) ResendForOrder(ctx context.Context, orderID int64, channelType domain.Channel, message string) (*domain.Notification, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !channelType.IsValid() {
		return nil, fmt.Errorf("%w: invalid channel %q", domain.ErrValidation, channelType)
	}

	existing, err := s.notifications.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("notification lookup for order %d failed: %w", orderID, err)
	}

	updated := existing.WithMessage(message, channelType, s.now().UTC())
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	sender, ok := s.senders.Get(channelType)
	if !ok {
		replaced, err := s.notifications.Replace(ctx, existing.ID, updated)
		if err != nil {
			return nil, fmt.Errorf("failed to persist order notification update: %w", err)
		}
		return replaced, nil
	}

	return s.sendAndFinalize(ctx, updated, sender, OpOrderResend, resendSubject, message, resendFallbackMessage)
}

// MarkSent flags an existing notification as delivered.
func (s *DispatchService) MarkSent(ctx context.Context, id string) (*domain.Notification, error) {
	existing, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.notifications.Replace(ctx, existing.ID, existing.WithSent(s.now().UTC()))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *DispatchService) GetAll(ctx context.Context) ([]domain.Notification, error) {
	return s.notifications.GetAll(ctx)
}

func (s *DispatchService) GetByCustomer(ctx context.Context, customerID int64) ([]domain.Notification, error) {
	return s.notifications.GetByCustomerID(ctx, customerID)
}

func (s *DispatchService) GetByOrder(ctx context.Context, orderID int64) (*domain.Notification, error) {
	return s.notifications.GetByOrderID(ctx, orderID)
}

func (s *DispatchService) GetByChannel(ctx context.Context, channelType domain.Channel) ([]domain.Notification, error) {
	return s.notifications.GetByChannel(ctx, channelType)
}

func (s *DispatchService) GetUnsent(ctx context.Context) ([]domain.Notification, error) {
	return s.notifications.GetUnsent(ctx)
}

// buildPending assembles the pending record, enriching it best-effort
// with product and order context.
func (s *DispatchService) buildPending(ctx context.Context, req domain.NotificationRequest) domain.Notification {
	pending := domain.Notification{
		ID:             uuid.NewString(),
		CustomerID:     req.CustomerID,
		OrderID:        req.OrderID,
		ProductID:      req.ProductID,
		OrderReference: req.OrderReference,
		Message:        req.Message,
		Email:          req.Email,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		Price:          req.Price,
		Quantity:       req.Quantity,
		ProductName:    domain.UnknownProduct,
		Channel:        req.Channel,
		Sent:           false,
		SentAt:         s.now().UTC(),
	}

	if s.resolver == nil {
		return pending
	}

	pending.ProductName = s.resolver.ResolveProductName(ctx, req.ProductID)

	if orderCtx := s.resolver.ResolveOrder(ctx, req.OrderID); orderCtx != nil {
		if pending.OrderReference == "" {
			pending.OrderReference = orderCtx.OrderReference
		}
		if pending.Address == "" {
			pending.Address = orderCtx.DeliveryAddr
		}
		if pending.PaymentMethod == "" {
			pending.PaymentMethod = orderCtx.PaymentMethod
		}
	}

	return pending
}

// sendAndFinalize runs the channel send through the resilience policy
// chain and persists exactly one terminal write: sent on success, the
// fixed fallback message on exhaustion. The orchestrator itself never
// retries.
func (s *DispatchService) sendAndFinalize(
	ctx context.Context,
	record domain.Notification,
	sender channel.Sender,
	operation string,
	subject string,
	body string,
	fallbackMessage string,
) (*domain.Notification, error) {
	log := observability.WithContextLogger(s.logger, ctx)
	executor := s.policies.Get(operation)

	var fallbackCause error
	sendStart := s.now()

	err := executor.Execute(ctx, func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
		return sender.Send(sendCtx, record.Email, subject, body)
	}, func(cause error) {
		fallbackCause = cause
	})
	if s.metrics != nil {
		s.metrics.ObserveChannelSendDuration(record.Channel.String(), s.now().Sub(sendStart))
	}
	if err != nil {
		return nil, fmt.Errorf("send aborted: %w", err)
	}

	if fallbackCause != nil {
		log.Error("send exhausted resilience budget, persisting fallback outcome",
			zap.String("operation", operation),
			zap.Int64("orderId", record.OrderID),
			zap.Error(fallbackCause),
		)

		fallback := record
		fallback.Message = fallbackMessage
		fallback.Sent = false
		fallback.SentAt = s.now().UTC()

		stored, storeErr := s.notifications.Replace(ctx, record.ID, fallback)
		if storeErr != nil {
			log.Error("failed to persist fallback outcome, returning transient record",
				zap.String("notificationId", record.ID),
				zap.Error(storeErr),
			)
			fallback.ID = record.ID
			stored = &fallback
		}
		if s.metrics != nil {
			s.metrics.IncDispatch(record.Channel.String(), "fallback")
		}
		return stored, nil
	}

	final, err := s.notifications.Replace(ctx, record.ID, record.WithSent(s.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to persist sent notification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncDispatch(record.Channel.String(), "sent")
	}
	log.Info("notification sent",
		zap.String("notificationId", final.ID),
		zap.Int64("customerId", final.CustomerID),
		zap.String("channel", final.Channel.String()),
	)
	return final, nil
}
