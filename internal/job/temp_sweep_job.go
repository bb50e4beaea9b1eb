package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/filestore"
)

const defaultTempMaxAge = time.Hour

// TempSweepJob removes staging files left behind by interrupted uploads.
type TempSweepJob struct {
	sweeper filestore.Sweeper
	maxAge  time.Duration
}

func NewTempSweepJob(sweeper filestore.Sweeper, maxAge time.Duration) *TempSweepJob {
	if maxAge <= 0 {
		maxAge = defaultTempMaxAge
	}
	return &TempSweepJob{sweeper: sweeper, maxAge: maxAge}
}

func (j *TempSweepJob) Name() string {
	return "temp_sweep"
}

func (j *TempSweepJob) Run(ctx context.Context) error {
	if j.sweeper == nil {
		return nil
	}
	removed, err := j.sweeper.SweepTemp(ctx, j.maxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("stale temp files removed", zap.Int("count", removed))
	}
	return nil
}
