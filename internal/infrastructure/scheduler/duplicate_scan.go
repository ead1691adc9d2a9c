package scheduler

import (
	"context"

	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DuplicateFinder lists supplier pairs that look like the same company
type DuplicateFinder interface {
	FindSuspectedDuplicates(ctx context.Context) ([]partnerapp.DuplicateCandidate, error)
}

// DuplicateScanExecutor runs the supplier duplicate scan and reports the
// pairs for back-office review. It never merges anything itself.
type DuplicateScanExecutor struct {
	finder  DuplicateFinder
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
}

// NewDuplicateScanExecutor creates the executor; metrics may be nil
func NewDuplicateScanExecutor(finder DuplicateFinder, metrics *telemetry.BusinessMetrics, logger *zap.Logger) *DuplicateScanExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateScanExecutor{finder: finder, metrics: metrics, logger: logger}
}

func (e *DuplicateScanExecutor) Kind() JobKind { return JobKindDuplicateScan }

func (e *DuplicateScanExecutor) Execute(ctx context.Context, job *Job) error {
	candidates, err := e.finder.FindSuspectedDuplicates(ctx)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		e.logger.Info("Suspected duplicate suppliers",
			zap.String("job_id", job.ID.String()),
			zap.String("first_id", c.First.ID.String()),
			zap.String("first_name", c.First.CanonicalName),
			zap.String("second_id", c.Second.ID.String()),
			zap.String("second_name", c.Second.CanonicalName),
			zap.Float64("score", c.Score),
		)
	}
	if e.metrics != nil {
		e.metrics.RecordSuspectedDuplicates(ctx, int64(len(candidates)))
	}
	e.logger.Info("Duplicate scan finished",
		zap.String("job_id", job.ID.String()),
		zap.Int("candidates", len(candidates)),
	)
	return nil
}
