package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"crmdash/internal/config"
	"crmdash/internal/model"
)

// msgBus forwards messages from store goroutines into the running program.
// Sends before a program is attached are dropped.
type msgBus struct {
	mu sync.Mutex
	p  *tea.Program
}

func (b *msgBus) attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.p = p
}

func (b *msgBus) Send(msg tea.Msg) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// WatchFunc blocks until ctx is done and calls onChange with every reloaded
// configuration.
type WatchFunc func(ctx context.Context, onChange func(*config.Config)) error

// Run starts the dashboard TUI and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options, watch WatchFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, opts)
	defer m.sched.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.bus.attach(p)

	unsubscribe := opts.Dashboard.Subscribe(func(res model.Resource) {
		m.bus.Send(model.StoreChangedMsg{Resource: res})
	})
	defer unsubscribe()

	if watch != nil {
		go func() {
			err := watch(ctx, func(cfg *config.Config) {
				m.bus.Send(model.ConfigReloadedMsg{
					RefreshIntervalMs: cfg.UI.RefreshIntervalMs,
					PageSizes:         cfg.UI.PageSizes,
				})
			})
			if err != nil {
				opts.Logger.Error().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.detail != nil {
		fm.detail.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run ui: %w", err)
	}
	return nil
}
