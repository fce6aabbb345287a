package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage"
)

// StorageKey is the fixed key the cart is persisted under.
const StorageKey = "cart"

// ErrNotPersisted marks a mutation that was applied in memory but could not be
// written to durable storage.
var ErrNotPersisted = errors.New("cart not persisted")

// ErrUnavailable marks a saved cart that could not be read. The durable copy
// is left as it is.
var ErrUnavailable = errors.New("cart storage unavailable")

// Store owns the cart state of one shopping session. Every mutation goes
// through domain.Apply and is then written to durable storage.
type Store struct {
	mu      sync.Mutex
	lines   domain.Lines
	storage storage.LocalStorage
	logger  *slog.Logger
}

// Open restores the cart from ls. A missing or malformed saved cart yields an
// empty cart and the restored state is written back before returning. A failed
// read returns ErrUnavailable without writing anything.
func Open(ctx context.Context, ls storage.LocalStorage, logger *slog.Logger) (*Store, error) {
	s := &Store{
		lines:   domain.Lines{},
		storage: ls,
		logger:  logger,
	}

	saved, err := s.restore(ctx)
	if err != nil {
		return nil, err
	}
	s.lines, _ = domain.Apply(s.lines, domain.Load{Lines: saved})

	if err := s.persist(ctx); err != nil {
		logger.WarnContext(ctx, "failed to write back restored cart",
			slog.String("error", err.Error()),
		)
	}

	return s, nil
}

func (s *Store) restore(ctx context.Context) (domain.Lines, error) {
	raw, found, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !found {
		return nil, nil
	}

	var saved domain.Lines
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.WarnContext(ctx, "saved cart is malformed, starting empty",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	s.logger.DebugContext(ctx, "cart restored", slog.Int("lines", len(saved)))
	return saved, nil
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("%w: marshal cart: %w", ErrNotPersisted, err)
	}
	if err := s.storage.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return nil
}

// dispatch applies a and persists the result. A rejected action leaves the
// state untouched and skips the write.
func (s *Store) dispatch(ctx context.Context, a domain.Action) (domain.Lines, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := domain.Apply(s.lines, a)
	if err != nil {
		return s.lines.Clone(), err
	}
	return s.commit(ctx, next)
}

// commit must be called with s.mu held.
func (s *Store) commit(ctx context.Context, next domain.Lines) (domain.Lines, error) {
	s.lines = next
	if err := s.persist(ctx); err != nil {
		return s.lines.Clone(), err
	}
	return s.lines.Clone(), nil
}

// AddItem adds quantity units of product. It returns a *domain.StockLimitError
// when the resulting quantity would exceed product.Stock.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) (domain.Lines, error) {
	return s.dispatch(ctx, domain.AddItem{Product: product, Quantity: quantity})
}

// RemoveItem drops the line for productID. Removing an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) (domain.Lines, error) {
	return s.dispatch(ctx, domain.RemoveItem{ProductID: productID})
}

// SetQuantity overwrites the quantity of a line; zero or less removes it.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) (domain.Lines, error) {
	return s.dispatch(ctx, domain.SetQuantity{ProductID: productID, Quantity: quantity})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (domain.Lines, error) {
	return s.dispatch(ctx, domain.Clear{})
}

// RemoveOrdered takes the quantities of ordered out of the cart. Anything
// added while the order was being placed stays.
func (s *Store) RemoveOrdered(ctx context.Context, ordered domain.Lines) (domain.Lines, error) {
	return s.dispatch(ctx, domain.RemoveOrdered{Lines: ordered})
}

// MergeRemote folds remote lines into the cart. Quantities of lines already
// present are clamped to the local stock; every clamp is reported.
func (s *Store) MergeRemote(ctx context.Context, remote domain.Lines) (domain.Lines, []domain.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, adjustments := domain.Merge(s.lines, remote)
	lines, err := s.commit(ctx, merged)
	return lines, adjustments, err
}

// Lines returns a copy of the current cart lines.
func (s *Store) Lines() domain.Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Clone()
}

// TotalItemCount returns the number of units in the cart.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalItemCount()
}

// TotalPrice returns the sum of line subtotals.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalPrice()
}

// OutOfStockLines returns lines whose product has zero stock.
func (s *Store) OutOfStockLines() domain.Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.OutOfStock()
}

// OverStockedLines returns lines requesting more than the available stock.
func (s *Store) OverStockedLines() domain.Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.OverStocked()
}

// Validate reports stock problems without mutating the cart.
func (s *Store) Validate() domain.Validation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Validate()
}
