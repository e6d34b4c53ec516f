// Package paper implements a simulated venue that fills orders against the
// latest known order books.
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/circuitbreaker"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
	"github.com/ming198921/taoli5.1-sub000/internal/ratelimit"
)

// Config holds simulation settings.
type Config struct {
	// FeeRate is the fraction charged on each simulated fill.
	FeeRate fixedpoint.Value

	// OrdersPerSecond and Burst bound simulated order submission.
	OrdersPerSecond float64
	Burst           int

	// MaxBookAge rejects fills against books older than this.
	MaxBookAge time.Duration
}

// DefaultConfig returns the standard simulation settings.
func DefaultConfig() Config {
	return Config{
		FeeRate:         fixedpoint.MustFromString("0.001"),
		OrdersPerSecond: 10,
		Burst:           5,
		MaxBookAge:      3 * time.Second,
	}
}

type bookKey struct {
	exchange string
	symbol   string
}

// Venue implements app.Venue against an in-memory book store.
type Venue struct {
	cfg     Config
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[domain.LegFill]
	logger  logger.LoggerInterface

	mu     sync.RWMutex
	books  map[bookKey]*marketDomain.OrderBook
	orders map[string]domain.LegFill
}

// NewVenue creates a paper venue.
func NewVenue(cfg Config, log logger.LoggerInterface) *Venue {
	if cfg.OrdersPerSecond <= 0 {
		cfg.OrdersPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.FeeRate.IsZero() {
		cfg.FeeRate = fixedpoint.MustFromString("0.001")
	}
	return &Venue{
		cfg:     cfg,
		limiter: ratelimit.NewWithBurst(cfg.OrdersPerSecond, cfg.Burst),
		breaker: circuitbreaker.New[domain.LegFill](circuitbreaker.DefaultConfig("paper-venue")),
		logger:  log,
		books:   make(map[bookKey]*marketDomain.OrderBook),
		orders:  make(map[string]domain.LegFill),
	}
}

// UpdateBooks refreshes the book store from a snapshot batch.
func (v *Venue) UpdateBooks(snapshots []marketDomain.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range snapshots {
		snap := &snapshots[i]
		v.books[bookKey{exchange: snap.Exchange, symbol: snap.Symbol}] = marketDomain.BookFromSnapshot(snap)
	}
}

// SetBook stores one full-depth book, for callers that have richer data
// than a snapshot.
func (v *Venue) SetBook(book *marketDomain.OrderBook) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.books[bookKey{exchange: book.Exchange, symbol: book.Symbol}] = book
}

// FetchBook implements app.Venue.
func (v *Venue) FetchBook(ctx context.Context, exchange, symbol string) (*marketDomain.OrderBook, error) {
	v.mu.RLock()
	book, ok := v.books[bookKey{exchange: exchange, symbol: symbol}]
	v.mu.RUnlock()
	if !ok {
		return nil, apperror.NotFound(apperror.CodeOrderbookFetchFailed, exchange+" "+symbol)
	}
	return book, nil
}

// PlaceOrder implements app.Venue. The fill is simulated at the book's best
// level on the consumed side.
func (v *Venue) PlaceOrder(ctx context.Context, order domain.LegOrder) (domain.LegFill, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return domain.LegFill{}, err
	}

	fill, err := v.breaker.Execute(func() (domain.LegFill, error) {
		return v.fill(order)
	})
	if err != nil {
		return domain.LegFill{}, err
	}

	v.mu.Lock()
	v.orders[fill.OrderID] = fill
	v.mu.Unlock()

	v.logger.Debug(ctx, "paper order filled",
		"order_id", fill.OrderID, "symbol", order.Symbol,
		"side", string(order.Side), "qty", fill.ExecutedQty.String())
	return fill, nil
}

func (v *Venue) fill(order domain.LegOrder) (domain.LegFill, error) {
	v.mu.RLock()
	book, ok := v.books[bookKey{exchange: order.Exchange, symbol: order.Symbol}]
	v.mu.RUnlock()
	if !ok {
		return domain.LegFill{}, apperror.New(apperror.CodeOrderRejected,
			apperror.WithContext("no book for "+order.Symbol))
	}
	if v.cfg.MaxBookAge > 0 && book.Age(time.Now()) > v.cfg.MaxBookAge {
		return domain.LegFill{}, apperror.New(apperror.CodeStaleMarketData,
			apperror.WithContext(order.Symbol))
	}

	var level marketDomain.Level
	var okSide bool
	if order.Side == marketDomain.SideSell {
		level, okSide = book.BestBid()
	} else {
		level, okSide = book.BestAsk()
	}
	if !okSide {
		return domain.LegFill{}, apperror.New(apperror.CodeOrderRejected,
			apperror.WithContext("empty "+string(order.Side)+" ladder for "+order.Symbol))
	}

	qty := order.Quantity
	if level.Qty.LessThan(qty) {
		qty = level.Qty
	}

	fee := qty.Mul(level.Price).Mul(v.cfg.FeeRate)
	return domain.LegFill{
		OrderID:     uuid.NewString(),
		ExecutedQty: qty,
		AvgPrice:    level.Price,
		Fee:         fee,
		FullyFilled: qty.Equal(order.Quantity),
	}, nil
}

// CancelOrder implements app.Venue. Simulated orders fill instantly, so a
// cancel only ever applies to an unknown or zero-fill order.
func (v *Venue) CancelOrder(ctx context.Context, exchange, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.orders[orderID]; !ok {
		return apperror.NotFound(apperror.CodeOrderRejected, orderID)
	}
	delete(v.orders, orderID)
	return nil
}

// ReverseOrder implements app.Venue. The compensating trade runs on the
// opposite side for the previously filled quantity.
func (v *Venue) ReverseOrder(ctx context.Context, order domain.LegOrder, fill domain.LegFill) (domain.LegFill, error) {
	reverse := domain.LegOrder{
		Exchange: order.Exchange,
		Symbol:   order.Symbol,
		Side:     order.Side.Opposite(),
		Price:    fill.AvgPrice,
		Quantity: fill.ExecutedQty,
	}
	return v.PlaceOrder(ctx, reverse)
}
