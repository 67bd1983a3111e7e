package enrichment

import (
	"context"

	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/ordercore/notification-orchestrator/internal/observability"
	"go.uber.org/zap"
)

// OrderLookup and ProductLookup are the remote read-only boundaries the
// resolver degrades over.
type OrderLookup interface {
	GetOrderContext(ctx context.Context, orderID int64) (*OrderContext, error)
}

type ProductLookup interface {
	GetProductContext(ctx context.Context, productID int64) (*ProductContext, error)
}

// Resolver fetches order and product context on a best-effort basis.
// Lookup failures degrade message content but never abort dispatch.
type Resolver struct {
	orders   OrderLookup
	products ProductLookup
	logger   *zap.Logger
	metrics  *observability.Metrics
}

func NewResolver(orders OrderLookup, products ProductLookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		orders:   orders,
		products: products,
		logger:   logger,
	}
}

func (r *Resolver) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// ResolveOrder returns order context, or nil when the lookup soft-fails.
func (r *Resolver) ResolveOrder(ctx context.Context, orderID int64) *OrderContext {
	if r == nil || r.orders == nil || orderID <= 0 {
		return nil
	}

	orderCtx, err := r.orders.GetOrderContext(ctx, orderID)
	if err != nil {
		r.logger.Warn("order enrichment failed, continuing without context",
			zap.Int64("orderId", orderID),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.IncEnrichmentFailure("order")
		}
		return nil
	}

	return orderCtx
}

// ResolveProductName returns the product name, or the sentinel value when
// the lookup soft-fails or no product id was supplied.
func (r *Resolver) ResolveProductName(ctx context.Context, productID int64) string {
	if r == nil || r.products == nil || productID <= 0 {
		return domain.UnknownProduct
	}

	productCtx, err := r.products.GetProductContext(ctx, productID)
	if err != nil {
		r.logger.Warn("product enrichment failed, using sentinel name",
			zap.Int64("productId", productID),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.IncEnrichmentFailure("product")
		}
		return domain.UnknownProduct
	}
	if productCtx == nil || productCtx.ProductName == "" {
		return domain.UnknownProduct
	}

	return productCtx.ProductName
}
