package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/idocr/internal/logging"
	"github.com/example/idocr/internal/retry"
)

// InvocationLog represents a persisted function invocation.
type InvocationLog struct {
	ID          uint      `gorm:"primaryKey"`
	RequestID   string    `gorm:"column:request_id;uniqueIndex;size:64"`
	Function    string    `gorm:"column:function_name;index;size:32"`
	StatusCode  int       `gorm:"column:status_code"`
	Body        string    `gorm:"column:body;type:text"`
	PayloadHash string    `gorm:"column:payload_sha256;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (InvocationLog) TableName() string {
	return "invocation_logs"
}

// Succeeded reports whether the function answered with a 2xx status.
func (l *InvocationLog) Succeeded() bool {
	return l.StatusCode >= 200 && l.StatusCode < 300
}

// MetricsAggregation is the raw invocation tally read from the database.
type MetricsAggregation struct {
	TotalCount   int64
	SuccessCount int64
	ByFunction   map[string]int64
}

// InvocationRepository provides persistence APIs for invocation logs.
type InvocationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	policy retry.Policy
}

// NewInvocationRepository creates a new repository instance.
func NewInvocationRepository(db *gorm.DB, logger *zap.Logger) *InvocationRepository {
	return &InvocationRepository{
		db:     db,
		logger: logger.Named("invocation_repository"),
		policy: retry.DefaultPolicy,
	}
}

// AutoMigrate ensures the schema is available.
func (r *InvocationRepository) AutoMigrate(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.auto_migrate", "", func() error {
		return r.db.WithContext(ctx).AutoMigrate(&InvocationLog{})
	})
}

// SaveLog persists an invocation log entry.
func (r *InvocationRepository) SaveLog(ctx context.Context, log *InvocationLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByRequestID retrieves the invocation log recorded under requestID.
func (r *InvocationRepository) FindByRequestID(ctx context.Context, requestID string) (*InvocationLog, error) {
	var (
		log      InvocationLog
		notFound bool
	)
	err := r.executeWithRetry(ctx, "repository.find_by_request_id", requestID, func() error {
		err := r.db.WithContext(ctx).First(&log, "request_id = ?", requestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, logging.NewOperationError("repository.find_by_request_id", requestID, gorm.ErrRecordNotFound)
	}
	return &log, nil
}

type functionCount struct {
	Function string
	Total    int64
	Success  int64
}

// AggregateMetrics tallies invocations per function.
func (r *InvocationRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var rows []functionCount
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		rows = rows[:0]
		return r.db.WithContext(ctx).
			Model(&InvocationLog{}).
			Select("function_name AS function, COUNT(*) AS total, SUM(CASE WHEN status_code BETWEEN 200 AND 299 THEN 1 ELSE 0 END) AS success").
			Group("function_name").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	agg := &MetricsAggregation{ByFunction: make(map[string]int64, len(rows))}
	for _, row := range rows {
		agg.TotalCount += row.Total
		agg.SuccessCount += row.Success
		agg.ByFunction[row.Function] = row.Total
	}
	return agg, nil
}

func (r *InvocationRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	return r.policy.Do(ctx, r.logger, operation, requestID, fn)
}
