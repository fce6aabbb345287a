package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/catalog"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	apperrors "github.com/RoBiul-Hasan-Jisan/hudai/pkg/errors"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/tracing"
)

// StorefrontService exposes the read side of the storefront API: catalog
// browsing and the order history of the authenticated user.
type StorefrontService struct {
	catalog Catalog
	orders  Orders
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(catalog Catalog, orders Orders, logger *slog.Logger) *StorefrontService {
	return &StorefrontService{
		catalog: catalog,
		orders:  orders,
		logger:  logger,
		tracer:  tracing.Tracer(tracerName),
	}
}

// ListProducts returns the catalog products matching f.
func (s *StorefrontService) ListProducts(ctx context.Context, f catalog.Filters) (_ []domain.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.ListProducts")
	defer func() { tracing.End(span, err, attribute.String("catalog.category", f.Category)) }()

	if f.MinPrice != nil && f.MaxPrice != nil && f.MaxPrice.IsPositive() && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperrors.InvalidInput("minPrice must not exceed maxPrice")
	}
	return s.catalog.ListProducts(ctx, f)
}

// GetProduct returns one catalog product.
func (s *StorefrontService) GetProduct(ctx context.Context, id string) (_ domain.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.GetProduct")
	defer func() { tracing.End(span, err, attribute.String("product.id", id)) }()

	if id == "" {
		return domain.Product{}, apperrors.InvalidInput("product id is required")
	}
	return s.catalog.GetProduct(ctx, id)
}

// Categories returns the catalog categories.
func (s *StorefrontService) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.Categories(ctx)
}

// ListOrders returns the orders of the authenticated user.
func (s *StorefrontService) ListOrders(ctx context.Context) (_ []domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.ListOrders")
	defer func() { tracing.End(span, err) }()

	return s.orders.List(ctx)
}

// GetOrder returns one order of the authenticated user.
func (s *StorefrontService) GetOrder(ctx context.Context, id string) (_ domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.GetOrder")
	defer func() { tracing.End(span, err, attribute.String("order.id", id)) }()

	if id == "" {
		return domain.Order{}, apperrors.InvalidInput("order id is required")
	}
	return s.orders.Get(ctx, id)
}
