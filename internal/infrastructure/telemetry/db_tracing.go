package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin so every query runs
// inside a span of the active trace. Query variables are excluded from
// span attributes; statements alone are enough to find a slow query
// and variables may carry addresses.
func RegisterDBTracing(db *gorm.DB, cfg Config, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("telemetry disabled, skipping database tracing")
		return nil
	}

	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(cfg.ServiceName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}

	logger.Info("database tracing enabled")
	return nil
}
