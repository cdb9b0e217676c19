package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor probes the task store on an interval and caches the result for the
// health endpoint.
type Monitor struct {
	store  Pinger
	driver string

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *zap.Logger
}

func New(store Pinger, driver string, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		driver:   driver,
		status:   Status{Driver: driver},
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

// Stop ends the probe loop and waits for it to exit. Safe to call more than once.
func (m *Monitor) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	select {
	case <-m.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Storage
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes the store once and records the outcome.
func (m *Monitor) Refresh() Status {
	status := Status{Driver: m.driver, LastCheck: time.Now().UTC()}

	if m.store == nil {
		status.Error = "storage not configured"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		started := time.Now()
		err := m.store.Ping(ctx)
		cancel()

		status.Latency = time.Since(started).String()
		status.Storage = err == nil
		if err != nil {
			status.Error = err.Error()
		}
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	switch {
	case !status.Storage && (previous.Storage || previous.LastCheck.IsZero()):
		m.logger.Error("storage unreachable",
			zap.String("driver", m.driver),
			zap.String("error", status.Error),
		)
	case status.Storage && !previous.Storage && !previous.LastCheck.IsZero():
		m.logger.Info("storage reachable again", zap.String("driver", m.driver))
	}
	return status
}
