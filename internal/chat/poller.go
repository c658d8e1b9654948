package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/itelinc/incuchat/internal/logging"
)

var (
	ErrPollerAlreadyRunning = errors.New("poller already running")
	ErrPollerNotRunning     = errors.New("poller not running")
)

// PollerConfig controls the two refresh cadences. The conversation list is
// polled unconditionally; messages only while a conversation is selected.
type PollerConfig struct {
	ListInterval    time.Duration
	MessageInterval time.Duration
}

// DefaultPollerConfig returns the stock cadences.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		ListInterval:    3 * time.Second,
		MessageInterval: time.Second,
	}
}

// pollTask is one periodic refresh loop. inFlight is the task's own
// single-flight flag: a tick that arrives while the previous run is still
// going is skipped outright, never queued.
type pollTask struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error

	mu       sync.Mutex
	inFlight bool
}

// tryRun executes the task unless a previous run is still in flight.
// Returns false when the tick was skipped.
func (t *pollTask) tryRun(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return false, nil
	}
	t.inFlight = true
	t.mu.Unlock()

	err := t.run(ctx)

	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
	return true, err
}

// Poller drives the engine's periodic refreshes. There is no backoff and no
// pause on error; a failed tick is logged and the cadence continues.
type Poller struct {
	engine *Engine
	config PollerConfig
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPoller(engine *Engine, config PollerConfig) *Poller {
	if config.ListInterval <= 0 {
		config.ListInterval = DefaultPollerConfig().ListInterval
	}
	if config.MessageInterval <= 0 {
		config.MessageInterval = DefaultPollerConfig().MessageInterval
	}
	return &Poller{
		engine: engine,
		config: config,
		logger: logging.Component("chat-poller"),
	}
}

// Start launches the refresh loops. They stop when ctx is cancelled or Stop
// is called, whichever comes first.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrPollerAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	tasks := []*pollTask{
		{
			name:     "conversation-list",
			interval: p.config.ListInterval,
			run:      p.engine.RefreshList,
		},
		{
			name:     "selected-messages",
			interval: p.config.MessageInterval,
			run:      p.engine.RefreshSelected,
		},
	}

	for _, task := range tasks {
		p.wg.Add(1)
		go p.loop(ctx, task)
	}

	p.logger.Debug().
		Dur("list_interval", p.config.ListInterval).
		Dur("message_interval", p.config.MessageInterval).
		Msg("poller started")
	return nil
}

// Stop cancels the loops and waits for in-flight refreshes to finish.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPollerNotRunning
	}
	p.running = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Debug().Msg("poller stopped")
	return nil
}

func (p *Poller) loop(ctx context.Context, task *pollTask) {
	defer p.wg.Done()

	ticker := time.NewTicker(task.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ran, err := task.tryRun(ctx)
			if !ran {
				p.logger.Debug().Str("task", task.name).Msg("tick skipped, previous run still in flight")
				continue
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Warn().Err(err).Str("task", task.name).Msg("refresh failed")
			}
		}
	}
}
