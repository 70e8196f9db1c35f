package usecase

import "context"

// MetricsSummary represents aggregated invocation insights.
type MetricsSummary struct {
	TotalInvocations      int64            `json:"total_invocations"`
	SuccessfulInvocations int64            `json:"successful_invocations"`
	SuccessRate           float64          `json:"success_rate"`
	ByFunction            map[string]int64 `json:"by_function"`
}

// GetMetricsSummary aggregates invocation metrics from persisted logs.
func (uc *InvocationUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	if uc.repo == nil {
		return nil, ErrMetricsUnavailable
	}

	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalInvocations:      aggregation.TotalCount,
		SuccessfulInvocations: aggregation.SuccessCount,
		ByFunction:            aggregation.ByFunction,
	}
	if summary.ByFunction == nil {
		summary.ByFunction = map[string]int64{}
	}

	if aggregation.TotalCount > 0 {
		summary.SuccessRate = float64(aggregation.SuccessCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
