package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const defaultLookupTimeout = 2 * time.Second

// OrderContext is the consolidation service's read-only view of an order.
// Fetched per dispatch and never cached.
type OrderContext struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customerId"`
	OrderID        int64           `json:"orderId"`
	OrderReference string          `json:"orderReference"`
	OrderStatus    string          `json:"orderStatus"`
	TotalAmount    decimal.Decimal `json:"optimisedTotalAmount"`
	DeliveryAddr   string          `json:"deliveryAddress"`
	PaymentMethod  string          `json:"paymentMethod"`
	Currency       string          `json:"currency"`
}

// ProductContext is the product service's read-only view of a product.
type ProductContext struct {
	ID          int64           `json:"id"`
	ProductName string          `json:"productName"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

// OrderClient looks up order context from the consolidation service.
type OrderClient struct {
	client  *resty.Client
	baseURL string
}

func NewOrderClient(baseURL string, timeout time.Duration) (*OrderClient, error) {
	base, err := validateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(lookupTimeout(timeout))
	client.SetRetryCount(0)

	return &OrderClient{client: client, baseURL: base}, nil
}

func (c *OrderClient) GetOrderContext(ctx context.Context, orderID int64) (*OrderContext, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("order client is not initialized")
	}

	var result OrderContext
	response, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("%s/consolidations/%d", c.baseURL, orderID))
	if err != nil {
		return nil, fmt.Errorf("order lookup failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("order lookup returned status %d", response.StatusCode())
	}

	return &result, nil
}

// ProductClient looks up product context from the product service.
type ProductClient struct {
	client  *resty.Client
	baseURL string
}

func NewProductClient(baseURL string, timeout time.Duration) (*ProductClient, error) {
	base, err := validateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(lookupTimeout(timeout))
	client.SetRetryCount(0)

	return &ProductClient{client: client, baseURL: base}, nil
}

func (c *ProductClient) GetProductContext(ctx context.Context, productID int64) (*ProductContext, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("product client is not initialized")
	}

	var result ProductContext
	response, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("%s/api/products/%d", c.baseURL, productID))
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("product lookup returned status %d", response.StatusCode())
	}

	return &result, nil
}

func validateBaseURL(baseURL string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return "", fmt.Errorf("base url is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	return trimmed, nil
}

func lookupTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultLookupTimeout
	}
	return timeout
}
