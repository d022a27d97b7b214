package audit

import (
	"context"
	"time"

	"github.com/DioGolang/GoData/pkg/metrics"
)

type RecordCommitMetricsDecorator struct {
	Next    RecordCommitUseCase
	Metrics metrics.Metrics
}

func (d *RecordCommitMetricsDecorator) Execute(ctx context.Context, input RecordCommitInput) (RecordCommitOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("RecordCommit", err == nil, time.Since(start))
	return output, err
}
