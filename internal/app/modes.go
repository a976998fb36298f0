package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"cubectl/internal/orchestrator"
	"cubectl/internal/store"
	"cubectl/internal/tui/controller"
	"cubectl/internal/tui/design"
	"cubectl/internal/tui/model"
	"cubectl/pkg/logging"
)

// runCLIMode executes the non-interactive watch mode: it loads the
// dashboard state, logs every store change and refreshes periodically
// until interrupted.
func runCLIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Info("CLI", "Running in no-TUI mode against %s", services.Backend.BaseURL())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub := services.Store.Subscribe()
	defer services.Store.Unsubscribe(sub)

	if err := refreshAll(ctx, services.Coordinator); err != nil {
		return err
	}
	logSummary(services.Store)
	logging.Info("CLI", "Watching for changes. Press Ctrl+C to exit.")

	var tick <-chan time.Time
	if interval := config.CubectlConfig.UI.RefreshInterval; interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("CLI", "Stopped watching")
			return nil
		case ev, ok := <-sub.Channel:
			if !ok {
				return nil
			}
			logging.Info("Watch", "%s", DescribeEvent(ev))
		case <-tick:
			if err := refreshAll(ctx, services.Coordinator); err != nil && ctx.Err() == nil {
				logging.Warn("Watch", "Refresh failed: %v", err)
			}
		}
	}
}

// refreshAll reloads the workspace list and every workspace's cubes.
func refreshAll(ctx context.Context, c *orchestrator.Coordinator) error {
	if err := c.RefreshWorkspaces(ctx); err != nil {
		return fmt.Errorf("failed to load workspaces: %w", err)
	}
	for _, w := range c.Store().Workspaces() {
		if err := c.RefreshCubes(ctx, w.ID); err != nil {
			logging.Warn("Watch", "Failed to load cubes of workspace %s: %v", w.Name, err)
		}
	}
	return nil
}

func logSummary(st *store.Store) {
	sum := st.Summary()
	logging.Info("Watch", "%d workspaces, %d cubes, %d running", sum.TotalWorkspaces, sum.TotalCubes, sum.TotalRunningCubes)
	for _, w := range st.Workspaces() {
		logging.Info("Watch", "  %-20s %-8s %d/%d", w.Name, w.Status(), w.RunningContainers, w.TotalContainers)
	}
}

// DescribeEvent renders a store change for the watch log.
func DescribeEvent(ev store.ChangeEvent) string {
	switch ev.Kind {
	case store.EventCubeUpdated:
		if ev.OldStatus != ev.NewStatus {
			return fmt.Sprintf("cube %s: %s -> %s", ev.EntityID, ev.OldStatus, ev.NewStatus)
		}
		return fmt.Sprintf("cube %s updated", ev.EntityID)
	case store.EventCubeRemoved:
		return fmt.Sprintf("cube %s removed from workspace %s", ev.EntityID, ev.WorkspaceID)
	case store.EventCubesReplaced:
		return fmt.Sprintf("cubes of workspace %s reloaded", ev.EntityID)
	case store.EventWorkspaceUpdated:
		return fmt.Sprintf("workspace %s updated", ev.EntityID)
	case store.EventWorkspaceRemoved:
		return fmt.Sprintf("workspace %s removed", ev.EntityID)
	case store.EventWorkspacesReplaced:
		return "workspaces reloaded"
	}
	return string(ev.Kind)
}

// runTUIMode executes the interactive terminal UI mode
func runTUIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Info("CLI", "Starting TUI mode...")

	// Initialize design system for TUI (dark mode by default)
	design.Initialize(true)

	// Switch logging to channel-based system for TUI integration
	logChan := logging.InitForTUI(config.LogLevel())
	defer logging.CloseTUIChannel()

	p, err := controller.NewProgram(ctx, model.Deps{
		Coordinator:     services.Coordinator,
		Logs:            services.Logs,
		Selection:       services.Selection,
		BackendURL:      services.Backend.BaseURL(),
		RefreshInterval: config.CubectlConfig.UI.RefreshInterval,
		DebugMode:       config.Debug,
	}, logChan)
	if err != nil {
		logging.Error("TUI-Lifecycle", err, "Error creating TUI program")
		return err
	}

	services.Notices.SetSink(func(n orchestrator.Notice) {
		p.Send(model.NoticeMsg{Notice: n})
	})
	defer services.Notices.SetSink(nil)

	// Run the TUI until user exits
	if _, err := p.Run(); err != nil {
		logging.Error("TUI-Lifecycle", err, "Error running TUI program")
		return err
	}
	services.Logs.Close()
	logging.Info("TUI-Lifecycle", "TUI exited.")

	return nil
}
