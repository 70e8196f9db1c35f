package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/idocr/internal/handler"
	"github.com/example/idocr/internal/logging"
	"github.com/example/idocr/internal/repository"
	"github.com/example/idocr/internal/retry"
)

var (
	// ErrUnknownFunction is returned when no function is registered under the requested name.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrResultNotFound is returned when no invocation was recorded under the request ID.
	ErrResultNotFound = errors.New("result not found")
	// ErrMetricsUnavailable is returned when the invocation log is not configured.
	ErrMetricsUnavailable = errors.New("invocation log not configured")
	// ErrCacheMiss is returned by Cache.Get for missing keys.
	ErrCacheMiss = errors.New("cache miss")
)

// InvocationRepository defines the persistence operations needed by the use case.
type InvocationRepository interface {
	SaveLog(ctx context.Context, log *repository.InvocationLog) error
	FindByRequestID(ctx context.Context, requestID string) (*repository.InvocationLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// FunctionRegistry resolves function names to their implementation.
type FunctionRegistry interface {
	Lookup(name string) (handler.Func, bool)
}

// Invocation is the outcome of a single function call made through the gateway.
type Invocation struct {
	RequestID string
	Function  string
	Response  events.APIGatewayProxyResponse
}

// InvocationUseCase invokes functions and records their results.
type InvocationUseCase struct {
	functions FunctionRegistry
	repo      InvocationRepository
	cache     Cache
	logger    *zap.Logger
	resultTTL time.Duration
	policy    retry.Policy
}

type cachedInvocation struct {
	RequestID   string    `json:"request_id"`
	Function    string    `json:"function"`
	StatusCode  int       `json:"status_code"`
	Body        string    `json:"body"`
	PayloadHash string    `json:"payload_sha256"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewInvocationUseCase constructs a new use case instance. repo and cache may be
// nil, in which case that sink is skipped.
func NewInvocationUseCase(functions FunctionRegistry, repo InvocationRepository, cache Cache, resultTTL time.Duration, logger *zap.Logger) *InvocationUseCase {
	return &InvocationUseCase{
		functions: functions,
		repo:      repo,
		cache:     cache,
		logger:    logger.Named("invocation_usecase"),
		resultTTL: resultTTL,
		policy:    retry.DefaultPolicy,
	}
}

// Invoke calls the named function with body as the API Gateway string body and
// records the result. Recording failures are logged and do not affect the
// returned response.
func (uc *InvocationUseCase) Invoke(ctx context.Context, function string, body []byte) (*Invocation, error) {
	fn, ok := uc.functions.Lookup(function)
	if !ok {
		return nil, ErrUnknownFunction
	}

	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.invoke", requestID)

	event, err := gatewayEvent(body)
	if err != nil {
		return nil, logging.NewOperationError("usecase.build_event", requestID, err)
	}

	invokeCtx := lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{AwsRequestID: requestID})
	resp, err := fn(invokeCtx, event)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.invoke_"+function, requestID, err)
		opLogger.Error("function invocation failed", zap.Error(wrapped))
		return nil, wrapped
	}

	hash := sha256.Sum256(body)
	log := &repository.InvocationLog{
		RequestID:   requestID,
		Function:    function,
		StatusCode:  resp.StatusCode,
		Body:        resp.Body,
		PayloadHash: hex.EncodeToString(hash[:]),
		CreatedAt:   time.Now().UTC(),
	}
	uc.record(ctx, opLogger, log)

	return &Invocation{RequestID: requestID, Function: function, Response: resp}, nil
}

func (uc *InvocationUseCase) record(ctx context.Context, opLogger *zap.Logger, log *repository.InvocationLog) {
	if uc.cache != nil {
		serialized, err := json.Marshal(cachedInvocation{
			RequestID:   log.RequestID,
			Function:    log.Function,
			StatusCode:  log.StatusCode,
			Body:        log.Body,
			PayloadHash: log.PayloadHash,
			CreatedAt:   log.CreatedAt,
		})
		if err != nil {
			opLogger.Warn("failed to serialize invocation result", zap.Error(err))
		} else if err := uc.policy.Do(ctx, uc.logger, "cache.set.result", log.RequestID, func() error {
			return uc.cache.Set(ctx, resultCacheKey(log.RequestID), string(serialized), uc.resultTTL)
		}); err != nil {
			opLogger.Warn("failed to cache invocation result", zap.Error(err))
		}
	}

	if uc.repo != nil {
		if err := uc.repo.SaveLog(ctx, log); err != nil {
			opLogger.Warn("failed to persist invocation log", zap.Error(logging.NewOperationError("usecase.save_log", log.RequestID, err)))
		}
	}
}

// GetResult retrieves a cached invocation outcome or loads it from persistence.
func (uc *InvocationUseCase) GetResult(ctx context.Context, requestID string) (*repository.InvocationLog, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_result", requestID)

	if uc.cache != nil {
		cached, err := uc.getCached(ctx, requestID)
		switch {
		case err == nil:
			var payload cachedInvocation
			if err := json.Unmarshal([]byte(cached), &payload); err != nil {
				opLogger.Warn("failed to decode cached result", zap.Error(err))
				break
			}
			log := &repository.InvocationLog{
				RequestID:   requestID,
				Function:    payload.Function,
				StatusCode:  payload.StatusCode,
				Body:        payload.Body,
				PayloadHash: payload.PayloadHash,
				CreatedAt:   payload.CreatedAt,
			}
			if payload.RequestID != "" {
				log.RequestID = payload.RequestID
			}
			return log, nil
		case isCacheMiss(err):
		default:
			opLogger.Warn("failed to read cache", zap.Error(err))
		}
	}

	if uc.repo == nil {
		return nil, ErrResultNotFound
	}

	log, err := uc.repo.FindByRequestID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (uc *InvocationUseCase) getCached(ctx context.Context, requestID string) (string, error) {
	var (
		result string
		miss   bool
	)
	err := uc.policy.Do(ctx, uc.logger, "cache.get.result", requestID, func() error {
		value, err := uc.cache.Get(ctx, resultCacheKey(requestID))
		if isCacheMiss(err) {
			miss = true
			return nil
		}
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", ErrCacheMiss
	}
	return result, nil
}

// gatewayEvent wraps a raw HTTP body the way API Gateway does: as a JSON
// string in the body field. An empty body leaves the field absent.
func gatewayEvent(body []byte) (*handler.Event, error) {
	if len(body) == 0 {
		return &handler.Event{}, nil
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil, err
	}
	return &handler.Event{Body: encoded}, nil
}

func isCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss) || errors.Is(err, redis.Nil)
}
