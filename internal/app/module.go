package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/tudusp/excel-data-analyzer/internal/workbook"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.workbook.enabled") {
		closer, err := workbook.New(workbook.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
		})
		if err != nil {
			slog.Error("failed to init module workbook", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Workbook"] = closer
		}
	}
}
