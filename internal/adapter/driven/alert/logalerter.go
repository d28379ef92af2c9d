// Package alert provides an Alerter for headless runs, where there is no
// interactive surface to show alerts on.
package alert

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Alerter = (*LogAlerter)(nil)

// LogAlerter writes each alert as a structured log record and reports it as
// dismissed.
type LogAlerter struct {
	logger *slog.Logger
}

// NewLogAlerter creates a LogAlerter.
func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// Present logs the alert. Warnings are logged at WARN, everything else at INFO.
func (a *LogAlerter) Present(ctx context.Context, alert model.Alert) (model.AlertAction, error) {
	level := slog.LevelInfo
	if alert.Severity == model.AlertSeverityWarning {
		level = slog.LevelWarn
	}

	a.logger.Log(ctx, level, alert.Message,
		"alert_id", alert.ID,
		"kind", alert.Kind,
		"repo", alert.Item.Repository.FullName(),
		"number", alert.Item.Number,
		"url", alert.Item.URL,
	)
	return model.AlertActionNone, nil
}
