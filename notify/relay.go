package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultBatchSize = 100

// Recorder receives one observation per handled message.
type Recorder interface {
	MessageRelayed(topic, result string)
}

type nopRecorder struct{}

func (nopRecorder) MessageRelayed(string, string) {}

// Relay moves outbox messages to a Publisher.
type Relay struct {
	outbox    Outbox
	publisher Publisher
	logger    *zap.Logger
	recorder  Recorder
	batchSize int
}

func NewRelay(outbox Outbox, publisher Publisher, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		recorder:  nopRecorder{},
		batchSize: DefaultBatchSize,
	}
}

func (r *Relay) WithBatchSize(n int) *Relay {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

func (r *Relay) WithRecorder(rec Recorder) *Relay {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// RunOnce delivers up to one batch of pending messages.
func (r *Relay) RunOnce(ctx context.Context) (Report, error) {
	report, err := r.outbox.Process(ctx, r.batchSize, func(ctx context.Context, msg Message) error {
		if err := r.publisher.Publish(ctx, msg); err != nil {
			r.recorder.MessageRelayed(msg.Topic, "failed")
			r.logger.Warn("outbox delivery failed",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Int("attempt", msg.Attempts+1),
				zap.Error(err),
			)
			return err
		}
		r.recorder.MessageRelayed(msg.Topic, "delivered")
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("notify: relay: %w", err)
	}
	if report.DeadLettered > 0 {
		r.logger.Error("outbox messages dead-lettered", zap.Int("count", report.DeadLettered))
	}
	if report.Total() > 0 {
		r.logger.Debug("outbox relay pass",
			zap.Int("delivered", report.Delivered),
			zap.Int("failed", report.Failed),
			zap.Int("dead", report.DeadLettered),
			zap.Int("deferred", report.Deferred),
		)
	}
	return report, nil
}

// Scheduler runs a Relay on a fixed interval via cron. Overlapping runs are
// skipped.
type Scheduler struct {
	relay    *Relay
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewScheduler(relay *Relay, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		relay:    relay,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start registers the relay job and starts the cron loop. Jobs derive their
// context from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("notify: scheduler already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("notify: invalid relay interval %s", s.interval)
	}

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		if ctx.Err() != nil {
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if _, err := s.relay.RunOnce(runCtx); err != nil {
			s.logger.Error("outbox relay pass failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("notify: schedule relay: %w", err)
	}

	s.logger.Info("starting outbox relay", zap.Duration("interval", s.interval))
	s.cron.Start()
	s.running = true
	return nil
}

// Stop waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.logger.Info("stopping outbox relay")
	<-s.cron.Stop().Done()
	s.running = false
}
