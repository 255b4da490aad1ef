package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"flashdesk/internal/logger"
)

type Shutdownable interface {
	Shutdown() error
}

// Func adapts a plain function to Shutdownable
type Func func() error

func (f Func) Shutdown() error { return f() }

type step struct {
	name      string
	component Shutdownable
}

// Manager runs registered cleanup steps once, in reverse registration order.
type Manager struct {
	steps   []step
	logger  logger.Logger
	timeout time.Duration
	mu      sync.Mutex
	done    chan struct{}
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		logger:  log,
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
}

func (m *Manager) Register(name string, component Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps = append(m.steps, step{name: name, component: component})
}

// Listen runs Shutdown on SIGINT/SIGTERM and then calls onSignal, which is
// expected to stop the UI loop.
func (m *Manager) Listen(onSignal func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			m.logger.Info("ShutdownManager", "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			m.Shutdown()
			if onSignal != nil {
				onSignal()
			}
		case <-m.done:
		}
		signal.Stop(sigChan)
	}()
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return // Already shut down
	default:
		close(m.done)
	}

	m.logger.Info("ShutdownManager", "shutdown sequence initiated", map[string]interface{}{
		"components": len(m.steps),
	})

	for i := len(m.steps) - 1; i >= 0; i-- {
		s := m.steps[i]

		finished := make(chan error, 1)
		go func() {
			finished <- s.component.Shutdown()
		}()

		select {
		case err := <-finished:
			if err != nil {
				m.logger.Error("ShutdownManager", err, map[string]interface{}{
					"component": s.name,
				})
				continue
			}
			m.logger.Debug("ShutdownManager", "component stopped", map[string]interface{}{
				"component": s.name,
			})
		case <-time.After(m.timeout):
			m.logger.Warning("ShutdownManager", "component shutdown timeout", map[string]interface{}{
				"component": s.name,
			})
		}
	}

	m.logger.Info("ShutdownManager", "shutdown sequence completed", nil)
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
