// internal/historian/historian.go pops game actions from the Redis queue and
// persists them to Postgres in batches.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records; ok is false when the wait timed out.
type Source interface {
	PopAction(ctx context.Context, timeout time.Duration) (rec models.GameActionRecord, ok bool, err error)
}

// Sink persists records and closes out idle games.
type Sink interface {
	InsertActions(ctx context.Context, records []models.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) error
}

// Options tunes batching and inactivity handling.
type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without actions before it is
	// marked abandoned.
	Inactivity time.Duration
	// PopTimeout bounds each blocking read so cancellation is noticed.
	PopTimeout time.Duration
	// SweepEvery is how often idle games are checked.
	SweepEvery time.Duration
}

func (o *Options) setDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 500 * time.Millisecond
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 10 * time.Minute
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 3 * time.Second
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = time.Minute
	}
}

// Service moves records from a Source to a Sink.
type Service struct {
	source Source
	sink   Sink
	opts   Options
	logger logrus.FieldLogger

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []models.GameActionRecord
}

func NewService(source Source, sink Sink, opts Options, logger logrus.FieldLogger) *Service {
	opts.setDefaults()
	return &Service{
		source: source,
		sink:   sink,
		opts:   opts,
		logger: logger,
		batch:  make([]models.GameActionRecord, 0, opts.BatchSize),
	}
}

// Run reads and flushes until ctx is cancelled, then flushes what is left.
func (hs *Service) Run(ctx context.Context) {
	hs.logger.Info("historian started")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); hs.readLoop(ctx) }()
	go func() { defer wg.Done(); hs.flushLoop(ctx) }()
	go func() { defer wg.Done(); hs.inactivityLoop(ctx) }()
	wg.Wait()

	hs.Flush(context.Background())
	hs.logger.Info("historian stopped")
}

func (hs *Service) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		rec, ok, err := hs.source.PopAction(ctx, hs.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			hs.logger.WithError(err).Error("pop action")
			continue
		}
		if !ok {
			continue
		}
		hs.lastActivity.Store(rec.GameID, time.Now())
		hs.appendToBatch(ctx, rec)
	}
}

func (hs *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.Flush(ctx)
		}
	}
}

func (hs *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			hs.sweepInactive(ctx, now)
		}
	}
}

// appendToBatch adds a record and flushes once the batch is full.
func (hs *Service) appendToBatch(ctx context.Context, rec models.GameActionRecord) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, rec)
	full := len(hs.batch) >= hs.opts.BatchSize
	hs.batchMu.Unlock()

	if full {
		hs.Flush(ctx)
	}
}

// Flush writes the pending batch. On failure the records are put back so the
// next flush retries them.
func (hs *Service) Flush(ctx context.Context) {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	pending := make([]models.GameActionRecord, len(hs.batch))
	copy(pending, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	if err := hs.sink.InsertActions(ctx, pending); err != nil {
		hs.logger.WithError(err).WithField("count", len(pending)).Error("flush actions")
		hs.batchMu.Lock()
		hs.batch = append(pending, hs.batch...)
		hs.batchMu.Unlock()
		return
	}
	hs.logger.WithField("count", len(pending)).Debug("flushed actions")
}

// sweepInactive marks games idle for longer than the inactivity window.
func (hs *Service) sweepInactive(ctx context.Context, now time.Time) {
	hs.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= hs.opts.Inactivity {
			return true
		}
		if err := hs.sink.MarkAbandoned(ctx, gameID); err != nil {
			hs.logger.WithError(err).WithField("game", gameID.String()).Warn("mark abandoned")
			return true
		}
		hs.lastActivity.Delete(gameID)
		hs.logger.WithField("game", gameID.String()).Info("marked game abandoned due to inactivity")
		return true
	})
}
