package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultCooldown is the wait between two published posts from one actor
const DefaultCooldown = 30 * time.Second

// CooldownLimiter is a per-actor countdown gate. Countdowns tick down once a
// second on a scheduler job whether or not anyone asks, so the UI can show a
// live countdown.
type CooldownLimiter struct {
	mu        sync.Mutex
	remaining map[string]int // seconds left, only actors still cooling down
	window    int

	sched  gocron.Scheduler
	logger *zap.Logger
	closed bool
}

// LimiterOption customises a CooldownLimiter
type LimiterOption func(*limiterOptions)

type limiterOptions struct {
	clock  clockwork.Clock
	logger *zap.Logger
}

// WithLimiterClock drives the tick job from clock instead of wall time.
func WithLimiterClock(clock clockwork.Clock) LimiterOption {
	return func(o *limiterOptions) { o.clock = clock }
}

func WithLimiterLogger(logger *zap.Logger) LimiterOption {
	return func(o *limiterOptions) { o.logger = logger }
}

// NewCooldownLimiter starts the one-second tick. Call Close to stop it.
func NewCooldownLimiter(window time.Duration, opts ...LimiterOption) (*CooldownLimiter, error) {
	if window < time.Second {
		return nil, fmt.Errorf("cooldown window must be at least 1s, got %s", window)
	}
	o := limiterOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	schedOpts := []gocron.SchedulerOption{}
	if o.clock != nil {
		schedOpts = append(schedOpts, gocron.WithClock(o.clock))
	}
	sched, err := gocron.NewScheduler(schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("create cooldown scheduler: %w", err)
	}

	l := &CooldownLimiter{
		remaining: make(map[string]int),
		window:    int(window / time.Second),
		sched:     sched,
		logger:    o.logger,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Second),
		gocron.NewTask(l.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("community-cooldown-tick"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule cooldown tick: %w", err)
	}
	sched.Start()
	return l, nil
}

// tick advances every countdown by one second.
func (l *CooldownLimiter) tick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for actor, left := range l.remaining {
		if left <= 1 {
			delete(l.remaining, actor)
			continue
		}
		l.remaining[actor] = left - 1
	}
}

// TryAcquire starts the actor's cooldown and reports true, unless a cooldown is
// already running.
func (l *CooldownLimiter) TryAcquire(actor string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.remaining[actor] > 0 {
		return false
	}
	l.remaining[actor] = l.window
	return true
}

// SecondsRemaining is the countdown the UI displays; 0 means the actor may post.
func (l *CooldownLimiter) SecondsRemaining(actor string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining[actor]
}

// Window is the cooldown length in seconds.
func (l *CooldownLimiter) Window() int {
	return l.window
}

// Close stops the tick job. Countdowns freeze where they are.
func (l *CooldownLimiter) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.sched.Shutdown(); err != nil {
		l.logger.Warn("cooldown scheduler shutdown", zap.Error(err))
		return err
	}
	return nil
}
