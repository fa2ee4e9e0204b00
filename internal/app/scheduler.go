package app

import (
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/scheduler"
)

// initializeSweeper builds the refresh sweeper when a schedule is
// configured. It is started by Run once the server is up.
func (a *App) initializeSweeper() {
	if a.Config.RefreshSweepSchedule == "" {
		return
	}

	a.Sweeper = scheduler.New(a.Service, a.Store,
		logging.GetGlobalLogger().WithFields(logging.Field{"component", "scheduler"}))
}
