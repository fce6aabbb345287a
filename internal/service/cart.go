package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/catalog"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/orders"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/client/remotecart"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/event"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/store"
	apperrors "github.com/RoBiul-Hasan-Jisan/hudai/pkg/errors"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/logger"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/tracing"
)

const tracerName = "github.com/RoBiul-Hasan-Jisan/hudai/internal/service"

// Sessions hands out the cart store of a session. The store stays live until
// release is called. *session.Manager satisfies it.
type Sessions interface {
	Acquire(ctx context.Context, key string) (st *store.Store, release func(), err error)
}

// Catalog reads product snapshots. *catalog.Client satisfies it.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context, f catalog.Filters) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Orders places and reads orders. *orders.Client satisfies it.
type Orders interface {
	Create(ctx context.Context, req orders.CreateRequest) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
}

// RemoteCart is the server-side cart of an authenticated user.
// *remotecart.Client satisfies it.
type RemoteCart interface {
	Load(ctx context.Context) ([]remotecart.Item, error)
	Save(ctx context.Context, items []remotecart.Item) error
	Clear(ctx context.Context) error
}

// CartView is the cart as returned to API callers.
type CartView struct {
	Session     string              `json:"session"`
	Lines       domain.Lines        `json:"lines"`
	TotalItems  int                 `json:"total_items"`
	TotalPrice  decimal.Decimal     `json:"total_price"`
	Summary     domain.Summary      `json:"summary"`
	Validation  domain.Validation   `json:"validation"`
	Adjustments []domain.Adjustment `json:"adjustments,omitempty"`
	// Persisted is false when the change is only held in memory.
	Persisted bool `json:"persisted"`
}

// LineRequest names a product and a quantity to put in the cart. The product
// snapshot is always taken from the catalog.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// CheckoutInput holds the parameters for placing an order from the cart.
type CheckoutInput struct {
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

// CartService implements the business logic for cart operations.
type CartService struct {
	sessions  Sessions
	catalog   Catalog
	orders    Orders
	remote    RemoteCart
	publisher event.Publisher
	pricing   domain.PricingPolicy
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewCartService creates a new cart service.
func NewCartService(
	sessions Sessions,
	catalog Catalog,
	orders Orders,
	remote RemoteCart,
	publisher event.Publisher,
	pricing domain.PricingPolicy,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		sessions:  sessions,
		catalog:   catalog,
		orders:    orders,
		remote:    remote,
		publisher: publisher,
		pricing:   pricing,
		logger:    logger,
		tracer:    tracing.Tracer(tracerName),
	}
}

func (s *CartService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}

// acquire reports a saved cart that cannot be read as a storage outage.
func (s *CartService) acquire(ctx context.Context, key string) (*store.Store, func(), error) {
	st, release, err := s.sessions.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil, nil, apperrors.ServiceUnavailable("cart storage", err)
		}
		return nil, nil, err
	}
	return st, release, nil
}

func (s *CartService) view(key string, lines domain.Lines) *CartView {
	return &CartView{
		Session:    key,
		Lines:      lines,
		TotalItems: lines.TotalItemCount(),
		TotalPrice: lines.TotalPrice(),
		Summary:    s.pricing.Summarize(lines),
		Validation: lines.Validate(),
		Persisted:  true,
	}
}

// finish turns the outcome of a store mutation into a view. A stock limit is
// a rejection; a failed write keeps the in-memory result.
func (s *CartService) finish(ctx context.Context, op, key string, lines domain.Lines, err error) (*CartView, error) {
	persisted := true
	if err != nil {
		var stockErr *domain.StockLimitError
		switch {
		case errors.As(err, &stockErr):
			cartOperationsTotal.WithLabelValues(op, resultRejected).Inc()
			s.log(ctx).InfoContext(ctx, "cart change rejected",
				slog.String("operation", op),
				slog.String("product_id", stockErr.ProductID),
				slog.Int("requested", stockErr.Requested),
				slog.Int("available", stockErr.Available),
			)
			return nil, apperrors.InsufficientStock(stockErr.ProductID, stockErr.Available)
		case errors.Is(err, store.ErrNotPersisted):
			cartPersistFailuresTotal.Inc()
			s.log(ctx).WarnContext(ctx, "cart change not persisted",
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			persisted = false
		default:
			cartOperationsTotal.WithLabelValues(op, resultError).Inc()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	cartOperationsTotal.WithLabelValues(op, resultOK).Inc()

	if err := s.publisher.CartUpdated(ctx, key, op, lines); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}

	v := s.view(key, lines)
	v.Persisted = persisted
	return v, nil
}

// GetCart returns the cart of a session with its totals and validation.
func (s *CartService) GetCart(ctx context.Context, key string) (*CartView, error) {
	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.view(key, st.Lines()), nil
}

// AddProduct adds quantity units of a catalog product. The product snapshot is
// fetched from the catalog so stock limits are checked against fresh data.
func (s *CartService) AddProduct(ctx context.Context, key, productID string, quantity int) (_ *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddProduct")
	defer func() {
		tracing.End(span, err,
			attribute.String("product.id", productID),
			attribute.Int("cart.quantity", quantity),
		)
	}()

	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := st.AddItem(ctx, product, quantity)
	v, err := s.finish(ctx, domain.AddItem{}.Name(), key, lines, err)
	if err != nil {
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "item added to cart",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return v, nil
}

// SetQuantity overwrites the quantity of a line. Zero or less removes it.
func (s *CartService) SetQuantity(ctx context.Context, key, productID string, quantity int) (_ *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.SetQuantity")
	defer func() {
		tracing.End(span, err,
			attribute.String("product.id", productID),
			attribute.Int("cart.quantity", quantity),
		)
	}()

	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := st.SetQuantity(ctx, productID, quantity)
	return s.finish(ctx, domain.SetQuantity{}.Name(), key, lines, err)
}

// RemoveItem drops a line. Removing an absent product is not an error.
func (s *CartService) RemoveItem(ctx context.Context, key, productID string) (*CartView, error) {
	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := st.RemoveItem(ctx, productID)
	return s.finish(ctx, domain.RemoveItem{}.Name(), key, lines, err)
}

// Clear empties the cart of a session.
func (s *CartService) Clear(ctx context.Context, key string) (*CartView, error) {
	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}

	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := st.Clear(ctx)
	v, err := s.finish(ctx, domain.Clear{}.Name(), key, lines, err)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.CartCleared(ctx, key); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("error", err.Error()),
		)
	}
	s.log(ctx).InfoContext(ctx, "cart cleared")
	return v, nil
}

// MergeRemote folds lines of another cart into the session cart. Product
// snapshots are fetched from the catalog and products it no longer knows are
// skipped. Lines already present keep their local snapshot and have their
// summed quantity clamped to its stock; every clamp is reported in the view.
func (s *CartService) MergeRemote(ctx context.Context, key string, remote []LineRequest) (_ *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.MergeRemote")
	defer func() { tracing.End(span, err, attribute.Int("cart.remote_lines", len(remote))) }()

	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}
	for _, l := range remote {
		if l.ProductID == "" {
			return nil, apperrors.InvalidInput("every line needs a product id")
		}
		if l.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity of %s must be at least 1", l.ProductID))
		}
	}

	lines, err := s.resolve(ctx, remote)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, key, lines)
}

// resolve turns product references into lines carrying catalog snapshots.
func (s *CartService) resolve(ctx context.Context, refs []LineRequest) (domain.Lines, error) {
	lines := make(domain.Lines, 0, len(refs))
	for _, ref := range refs {
		product, err := s.catalog.GetProduct(ctx, ref.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				s.log(ctx).WarnContext(ctx, "skipping cart line for unknown product",
					slog.String("product_id", ref.ProductID),
				)
				continue
			}
			return nil, err
		}
		lines = append(lines, domain.Line{Product: product, Quantity: ref.Quantity})
	}
	return lines, nil
}

func (s *CartService) merge(ctx context.Context, key string, remote domain.Lines) (*CartView, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, adjustments, err := st.MergeRemote(ctx, remote)
	v, err := s.finish(ctx, domain.MergeRemote{}.Name(), key, lines, err)
	if err != nil {
		return nil, err
	}

	v.Adjustments = adjustments
	if len(adjustments) > 0 {
		cartMergeAdjustmentsTotal.Add(float64(len(adjustments)))
		for _, a := range adjustments {
			s.log(ctx).InfoContext(ctx, "merged quantity clamped to stock",
				slog.String("product_id", a.ProductID),
				slog.Int("requested", a.Requested),
				slog.Int("granted", a.Granted),
			)
		}
	}
	return v, nil
}

// SyncRemote merges the server cart of the authenticated user into the
// session cart and writes the merged result back to the server. Server lines
// whose product no longer exists are skipped.
func (s *CartService) SyncRemote(ctx context.Context, key string) (_ *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.SyncRemote")
	defer func() { tracing.End(span, err) }()

	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}

	items, err := s.remote.Load(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]LineRequest, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		refs = append(refs, LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	remote, err := s.resolve(ctx, refs)
	if err != nil {
		return nil, err
	}

	v, err := s.merge(ctx, key, remote)
	if err != nil {
		return nil, err
	}

	if err := s.remote.Save(ctx, remotecart.ItemsFromLines(v.Lines)); err != nil {
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "cart synced with server",
		slog.Int("server_lines", len(remote)),
		slog.Int("lines", len(v.Lines)),
	)
	return v, nil
}

// Validate reports stock problems of the cart without changing it.
func (s *CartService) Validate(ctx context.Context, key string) (domain.Validation, error) {
	if key == "" {
		return domain.Validation{}, apperrors.InvalidInput("session is required")
	}
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return domain.Validation{}, err
	}
	defer release()

	return st.Validate(), nil
}

func validPaymentMethod(m string) bool {
	switch m {
	case domain.PaymentCard, domain.PaymentPayPal, domain.PaymentCOD:
		return true
	}
	return false
}

// Checkout places an order for the cart contents and takes the ordered lines
// out of the cart. Lines added while the order is being placed stay. A cart
// with stock problems is rejected with the list of problems.
func (s *CartService) Checkout(ctx context.Context, key string, in CheckoutInput) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Checkout")
	defer func() { tracing.End(span, err, attribute.String("payment.method", in.PaymentMethod)) }()

	if key == "" {
		return nil, apperrors.InvalidInput("session is required")
	}
	if !validPaymentMethod(in.PaymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported payment method %q", in.PaymentMethod))
	}

	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lines := st.Lines()
	if len(lines) == 0 {
		checkoutsTotal.WithLabelValues(resultRejected).Inc()
		return nil, apperrors.InvalidInput("cart is empty")
	}
	if v := lines.Validate(); !v.Valid {
		checkoutsTotal.WithLabelValues(resultRejected).Inc()
		return nil, apperrors.CheckoutBlocked(v.Messages())
	}

	order, err := s.orders.Create(ctx, orders.CreateRequest{
		Items:           lines.OrderItems(),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TotalAmount:     lines.TotalPrice(),
	})
	if err != nil {
		checkoutsTotal.WithLabelValues(resultError).Inc()
		return nil, err
	}
	checkoutsTotal.WithLabelValues(resultOK).Inc()

	remaining, err := st.RemoveOrdered(ctx, lines)
	if err != nil {
		cartPersistFailuresTotal.Inc()
		s.log(ctx).WarnContext(ctx, "cart after checkout not persisted",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.syncRemoteAfterCheckout(ctx, remaining); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to update server cart after checkout",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.publisher.CartCheckedOut(ctx, key, order, lines); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish cart.checked_out event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.Int("items", lines.TotalItemCount()),
		slog.String("total", lines.TotalPrice().String()),
	)
	return &order, nil
}

// syncRemoteAfterCheckout mirrors what is left of the cart to the server.
func (s *CartService) syncRemoteAfterCheckout(ctx context.Context, remaining domain.Lines) error {
	if len(remaining) == 0 {
		return s.remote.Clear(ctx)
	}
	return s.remote.Save(ctx, remotecart.ItemsFromLines(remaining))
}
