package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry pushes metrics and flushes log buffers before process
// exit. Call once, after the batch has finished; a batch job that exits
// without flushing loses its final log lines and its whole run's metrics.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, pushgatewayURL string) error {
	if err := PushMetrics(ctx, pushgatewayURL); err != nil {
		return err
	}
	if logger != nil {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("flush logs: %w", err)
		}
	}
	return nil
}
