package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"go.uber.org/zap"
)

// BulkResult is the outcome for one function of a bulk load.
type BulkResult struct {
	Metadata *metadata.FunctionMetadata `json:"metadata,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Code     apperrors.Kind             `json:"error_code,omitempty"`
}

// BulkLoad resolves each name in turn. A failure is recorded against its
// name and does not stop the batch.
func (r *Resolver) BulkLoad(ctx context.Context, names []string, language string) map[string]BulkResult {
	batchID := uuid.NewString()
	logger := r.logger.With(zap.String("batch_id", batchID))
	start := time.Now()

	results := make(map[string]BulkResult, len(names))
	failed := 0
	for _, raw := range names {
		name := normalizeName(raw)
		if name == "" {
			continue
		}
		if _, done := results[name]; done {
			continue
		}

		md, err := r.GetFunctionMetadata(ctx, name, language, false)
		if err != nil {
			logger.Error("failed to load function metadata", zap.String("function", name), zap.Error(err))
			results[name] = BulkResult{Error: err.Error(), Code: apperrors.KindOf(err)}
			failed++
			continue
		}
		logger.Debug("loaded function metadata", zap.String("function", name))
		results[name] = BulkResult{Metadata: md}
	}

	logger.Info("bulk load finished",
		zap.Int("requested", len(names)),
		zap.Int("loaded", len(results)-failed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))
	return results
}
