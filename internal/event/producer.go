package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	pkgkafka "github.com/RoBiul-Hasan-Jisan/hudai/pkg/kafka"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/logger"
)

// Kafka topics for cart domain events.
var (
	TopicCartUpdated    = pkgkafka.Topic("cart", "updated")
	TopicCartCleared    = pkgkafka.Topic("cart", "cleared")
	TopicCartCheckedOut = pkgkafka.Topic("cart", "checked_out")
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the cart service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Session    string          `json:"session"`
	Action     string          `json:"action"`
	Items      []CartItemData  `json:"items"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	Session string `json:"session"`
}

// CartCheckedOutData is the payload for a cart.checked_out event.
type CartCheckedOutData struct {
	Session       string          `json:"session"`
	OrderID       string          `json:"order_id"`
	Items         []CartItemData  `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

// Publisher emits cart domain events.
type Publisher interface {
	CartUpdated(ctx context.Context, session, action string, lines domain.Lines) error
	CartCleared(ctx context.Context, session string) error
	CartCheckedOut(ctx context.Context, session string, order domain.Order, lines domain.Lines) error
}

// Sender publishes an event envelope to a topic. *pkgkafka.Producer satisfies it.
type Sender interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	sender Sender
	logger *slog.Logger
}

// NewProducer creates a new event producer for the cart service.
func NewProducer(sender Sender, logger *slog.Logger) *Producer {
	return &Producer{
		sender: sender,
		logger: logger,
	}
}

func itemData(ls domain.Lines) []CartItemData {
	items := make([]CartItemData, len(ls))
	for i, l := range ls {
		items[i] = CartItemData{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		}
	}
	return items
}

func (p *Producer) publish(ctx context.Context, topic, session string, data any) error {
	event, err := pkgkafka.NewEvent(topic, session, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.sender.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// CartUpdated publishes a cart.updated event.
func (p *Producer) CartUpdated(ctx context.Context, session, action string, lines domain.Lines) error {
	data := CartUpdatedData{
		Session:    session,
		Action:     action,
		Items:      itemData(lines),
		ItemCount:  lines.TotalItemCount(),
		TotalPrice: lines.TotalPrice(),
	}
	if err := p.publish(ctx, TopicCartUpdated, session, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session", session),
		slog.String("action", action),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// CartCleared publishes a cart.cleared event.
func (p *Producer) CartCleared(ctx context.Context, session string) error {
	if err := p.publish(ctx, TopicCartCleared, session, CartClearedData{Session: session}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session", session),
	)
	return nil
}

// CartCheckedOut publishes a cart.checked_out event.
func (p *Producer) CartCheckedOut(ctx context.Context, session string, order domain.Order, lines domain.Lines) error {
	data := CartCheckedOutData{
		Session:       session,
		OrderID:       order.ID,
		Items:         itemData(lines),
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
	}
	if err := p.publish(ctx, TopicCartCheckedOut, session, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.checked_out event",
		slog.String("session", session),
		slog.String("order_id", order.ID),
	)
	return nil
}

// Noop discards every event. It is used when publishing is disabled.
type Noop struct{}

func (Noop) CartUpdated(context.Context, string, string, domain.Lines) error { return nil }

func (Noop) CartCleared(context.Context, string) error { return nil }

func (Noop) CartCheckedOut(context.Context, string, domain.Order, domain.Lines) error { return nil }

var _ Publisher = (*Producer)(nil)
var _ Publisher = Noop{}
