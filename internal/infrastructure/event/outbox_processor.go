package event

import (
	"context"
	"sync"
	"time"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives outbox entries from the processor. A nil error marks the
// entry as sent; anything else schedules a retry.
type Sink interface {
	Send(ctx context.Context, entry *shared.OutboxEntry) error
}

// OutboxProcessorConfig tunes the relay loop
type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxRetries overrides the per-entry retry budget when positive
	MaxRetries       int
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor relays committed outbox entries to a Sink in the background
type OutboxProcessor struct {
	repo   shared.OutboxRepository
	sink   Sink
	config OutboxProcessorConfig
	logger *zap.Logger

	onRelayed func(sent int)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(repo shared.OutboxRepository, sink Sink, config OutboxProcessorConfig, logger *zap.Logger) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultOutboxProcessorConfig().BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultOutboxProcessorConfig().PollInterval
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultOutboxProcessorConfig().CleanupInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxProcessor{repo: repo, sink: sink, config: config, logger: logger}
}

// SetRelayObserver registers a callback invoked with the sent count of
// every background batch
func (p *OutboxProcessor) SetRelayObserver(fn func(sent int)) {
	p.onRelayed = fn
}

// Start launches the relay and cleanup loops
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled && p.config.CleanupRetention > 0 {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for them, bounded by ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent := p.ProcessBatch(ctx)
			if p.onRelayed != nil {
				p.onRelayed(sent)
			}
		}
	}
}

// ProcessBatch relays one batch of pending entries and one batch of
// failed entries that are due for retry. It returns how many were sent.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	sent := 0

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending outbox entries", zap.Error(err))
		return sent
	}
	sent += p.relay(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable outbox entries", zap.Error(err))
		return sent
	}
	return sent + p.relay(ctx, retryable)
}

func (p *OutboxProcessor) relay(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim outbox entries", zap.Error(err))
		return 0
	}

	sent := 0
	for _, entry := range claimed {
		if p.send(ctx, entry) {
			sent++
		}
	}
	return sent
}

func (p *OutboxProcessor) send(ctx context.Context, entry *shared.OutboxEntry) bool {
	if p.config.MaxRetries > 0 {
		entry.MaxRetries = p.config.MaxRetries
	}

	if err := p.sink.Send(ctx, entry); err != nil {
		entry.MarkFailed(err.Error())
		fields := []zap.Field{
			zap.String("event_id", entry.EventID.String()),
			zap.String("event_type", entry.EventType),
			zap.String("aggregate_id", entry.AggregateID.String()),
			zap.Int("retry_count", entry.RetryCount),
			zap.Error(err),
		}
		if entry.IsDead() {
			p.logger.Error("outbox entry moved to dead letter", fields...)
		} else {
			p.logger.Warn("outbox relay failed, will retry", fields...)
		}
		if updateErr := p.repo.Update(ctx, entry); updateErr != nil {
			p.logger.Error("failed to update outbox entry", zap.Error(updateErr))
		}
		return false
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to mark outbox entry as sent",
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
		return false
	}
	p.logger.Debug("outbox entry relayed",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
	)
	return true
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Cleanup(ctx)
		}
	}
}

// Cleanup deletes sent entries older than the retention window
func (p *OutboxProcessor) Cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up outbox entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
