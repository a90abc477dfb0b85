package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchbook/api/lineproto"
	"matchbook/domain/orderbook"
	"matchbook/infra/wal/entry"
	exitwal "matchbook/infra/wal/exit"
	"matchbook/metrics"
	"matchbook/snapshot"
)

var (
	ErrJournal = errors.New("service: journal append failed")
	ErrOutbox  = errors.New("service: trade outbox write failed")
)

// Journal records every parsed command before it executes.
type Journal interface {
	Append(t entry.RecordType, data []byte) (uint64, error)
}

// Outbox stores trade events for asynchronous delivery.
type Outbox interface {
	PutNew(entries ...exitwal.Entry) error
}

// SnapshotSink receives depth snapshots (file writer, Kafka producer).
type SnapshotSink interface {
	PublishSnapshot(ctx context.Context, seq uint64, blocks []snapshot.Block) error
}

/*
MatchService is the ONLY write entry point into the engine.

Coordination between:
- domain (orderbook engine)
- infra (journal, outbox)
- snapshot, metrics, logging
happens here.
*/
type MatchService struct {
	mu     sync.Mutex
	engine *orderbook.Engine
	next   int // index of the next submitted line

	journal Journal
	outbox  Outbox
	metrics *metrics.Collector
	log     *zap.Logger
	runID   string
	now     func() time.Time
}

type Option func(*MatchService)

func WithEngine(e *orderbook.Engine) Option {
	return func(s *MatchService) { s.engine = e }
}

func WithJournal(j Journal) Option {
	return func(s *MatchService) { s.journal = j }
}

func WithOutbox(o Outbox) Option {
	return func(s *MatchService) { s.outbox = o }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *MatchService) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *MatchService) { s.log = l }
}

// New wires a service. Journal, outbox and metrics are optional.
func New(opts ...Option) *MatchService {
	s := &MatchService{
		log:   zap.NewNop(),
		runID: uuid.NewString(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = orderbook.NewEngine()
	}
	s.log = s.log.With(zap.String("component", "match_service"), zap.String("run_id", s.runID))
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// SubmitLine parses and executes one text command. Every call, including
// one that fails to parse, consumes one command index.
func (s *MatchService) SubmitLine(ctx context.Context, line string) ([]orderbook.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.next
	s.next++

	cmd, err := lineproto.Parse(line, index)
	if err != nil {
		s.reject(index, "", 0, err, zap.String("line", line))
		return nil, err
	}
	return s.execute(ctx, cmd)
}

// Submit executes an already parsed command. cmd.Index is kept as given.
func (s *MatchService) Submit(ctx context.Context, cmd lineproto.Command) ([]orderbook.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd.Index >= s.next {
		s.next = cmd.Index + 1
	}
	return s.execute(ctx, cmd)
}

func (s *MatchService) execute(_ context.Context, cmd lineproto.Command) ([]orderbook.Trade, error) {
	kind := cmd.Kind.String()
	if s.metrics != nil {
		s.metrics.Commands.WithLabelValues(kind).Inc()
	}

	if cmd.PriceWarning != nil {
		s.log.Warn("price rounded to 4 decimals",
			zap.Int("index", cmd.Index),
			zap.Uint64("order_id", cmd.OrderID),
			zap.Stringer("price", cmd.Price),
			zap.Error(cmd.PriceWarning),
		)
		s.countReject(cmd.PriceWarning)
	}

	// 1️⃣ Journal the intent
	if s.journal != nil {
		rt, payload := journalRecord(cmd)
		if _, err := s.journal.Append(rt, payload); err != nil {
			s.log.Error("journal append failed", zap.Int("index", cmd.Index), zap.Error(err))
			s.countReject(ErrJournal)
			return nil, fmt.Errorf("%w: %v", ErrJournal, err)
		}
	}

	// 2️⃣ Execute deterministic domain logic
	var (
		trades []orderbook.Trade
		err    error
	)
	switch cmd.Kind {
	case lineproto.Insert:
		trades, err = s.engine.Insert(cmd.OrderID, cmd.Symbol, cmd.Side, cmd.Price, cmd.Qty)
	case lineproto.Amend:
		trades, err = s.engine.Amend(cmd.OrderID, cmd.Price, cmd.Qty)
	case lineproto.Pull:
		err = s.engine.Pull(cmd.OrderID)
	default:
		err = fmt.Errorf("%w: %s", lineproto.ErrUnknownCommand, kind)
	}
	if err != nil {
		s.reject(cmd.Index, kind, cmd.OrderID, err)
		return nil, err
	}

	s.observe(cmd, trades)

	// 3️⃣ Hand trades to the outbox
	if s.outbox != nil && len(trades) > 0 {
		if err := s.outbox.PutNew(s.tradeEntries(trades)...); err != nil {
			s.log.Error("outbox write failed",
				zap.Int("index", cmd.Index),
				zap.Int("trades", len(trades)),
				zap.Error(err),
			)
			s.countReject(ErrOutbox)
			return trades, fmt.Errorf("%w: %v", ErrOutbox, err)
		}
	}
	return trades, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Snapshot returns the depth view of every symbol with resting orders.
func (s *MatchService) Snapshot() []snapshot.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Take(s.engine)
}

// Sequence is the last arrival sequence handed out by the engine.
func (s *MatchService) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Sequence()
}

// Order returns a copy of a resting order.
func (s *MatchService) Order(id uint64) (orderbook.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Order(id)
}

func (s *MatchService) CheckIntegrity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.CheckIntegrity()
}

// PublishSnapshot takes one snapshot and hands it to every sink. A failing
// sink does not stop the others.
func (s *MatchService) PublishSnapshot(ctx context.Context, sinks ...SnapshotSink) error {
	s.mu.Lock()
	seq := s.engine.Sequence()
	blocks := snapshot.Take(s.engine)
	s.mu.Unlock()

	var errs []error
	for _, sink := range sinks {
		if err := sink.PublishSnapshot(ctx, seq, blocks); err != nil {
			s.log.Error("snapshot publish failed", zap.Uint64("seq", seq), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

//
// ──────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────
//

func (s *MatchService) observe(cmd lineproto.Command, trades []orderbook.Trade) {
	for _, t := range trades {
		s.log.Debug("trade",
			zap.Uint64("trade_seq", t.Seq),
			zap.String("symbol", t.Symbol),
			zap.Stringer("price", t.Price),
			zap.Int64("qty", t.Qty),
			zap.Uint64("aggressor_id", t.AggressorID),
			zap.Uint64("passive_id", t.PassiveID),
		)
	}
	if s.metrics == nil {
		return
	}
	for _, t := range trades {
		s.metrics.Trades.Inc()
		s.metrics.TradedQty.Add(float64(t.Qty))
	}
	s.metrics.RestingOrders.Set(float64(s.engine.RestingOrders()))
	if cmd.Kind == lineproto.Insert {
		s.metrics.Symbols.Set(float64(len(s.engine.Symbols())))
	}
}

func (s *MatchService) reject(index int, kind string, orderID uint64, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.Int("index", index),
		zap.String("reason", rejectReason(err)),
		zap.Error(err),
	)
	if kind != "" {
		fields = append(fields, zap.String("kind", kind), zap.Uint64("order_id", orderID))
	}
	s.log.Warn("command rejected", fields...)
	s.countReject(err)
}

func (s *MatchService) countReject(err error) {
	if s.metrics != nil {
		s.metrics.Rejects.WithLabelValues(rejectReason(err)).Inc()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, orderbook.ErrUnknownOrder):
		return "unknown_order"
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		return "duplicate_order"
	case errors.Is(err, orderbook.ErrPricePrecision):
		return "price_precision"
	case errors.Is(err, orderbook.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, orderbook.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, orderbook.ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, orderbook.ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, ErrJournal):
		return "journal"
	case errors.Is(err, ErrOutbox):
		return "outbox"
	default:
		return "malformed"
	}
}

func (s *MatchService) tradeEntries(trades []orderbook.Trade) []exitwal.Entry {
	now := s.now().UnixNano()
	out := make([]exitwal.Entry, 0, len(trades))
	for _, t := range trades {
		ev := exitwal.TradeEvent{
			ID:            uuid.NewString(),
			Seq:           t.Seq,
			Symbol:        t.Symbol,
			Price:         t.Price.String(),
			PriceTicks:    t.Price.Ticks(),
			Qty:           t.Qty,
			AggressorID:   t.AggressorID,
			PassiveID:     t.PassiveID,
			AggressorSide: uint8(t.AggressorSide),
			Time:          now,
		}
		out = append(out, exitwal.Entry{Seq: t.Seq, Payload: ev.Marshal()})
	}
	return out
}
