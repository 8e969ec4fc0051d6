package telemetry

import (
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin plus a callback that tags
// spans with the affected table and row count. Query variables are never
// put on spans.
func RegisterDBTracing(db *gorm.DB, dbName string, logger *zap.Logger) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	cb := db.Callback()
	register := []error{
		cb.Create().After("gorm:create").Register("rma_trace:create", annotateSpan),
		cb.Query().After("gorm:query").Register("rma_trace:query", annotateSpan),
		cb.Update().After("gorm:update").Register("rma_trace:update", annotateSpan),
		cb.Delete().After("gorm:delete").Register("rma_trace:delete", annotateSpan),
		cb.Raw().After("gorm:raw").Register("rma_trace:raw", annotateSpan),
	}
	if err := errors.Join(register...); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("database tracing enabled", zap.String("db_name", dbName))
	}
	return nil
}

func annotateSpan(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
}
