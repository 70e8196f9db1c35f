// Package handler implements the document functions invoked through AWS
// Lambda or the local gateway.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/example/idocr/internal/logging"
	"github.com/example/idocr/internal/recognition"
)

// Function names used for routing and invocation logs.
const (
	FunctionOCR      = "ocr"
	FunctionVerifyID = "verify_id"
)

// Func is the signature shared by every document function.
type Func func(ctx context.Context, event *Event) (events.APIGatewayProxyResponse, error)

var (
	ocrBody          = mustMarshal(recognition.StubRecognition())
	verificationBody = mustMarshal(recognition.StubVerification())
)

// Handler serves the document functions. It holds no mutable state and is
// safe for concurrent use.
type Handler struct {
	logger *zap.Logger
}

// NewHandler constructs a handler. A nil logger disables logging.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger.Named("handler")}
}

// OCR returns the recognition result for the identity document referenced by
// the event. The payload is read but does not affect the result.
func (h *Handler) OCR(ctx context.Context, event *Event) (events.APIGatewayProxyResponse, error) {
	payload := event.Payload()
	h.invocationLogger(ctx, "handler.ocr").Debug("ocr invoked", zap.Int("payload_bytes", len(payload)))
	return jsonResponse(ocrBody), nil
}

// VerifyID returns the verification result for the identity in the event body.
// A body that is not valid JSON is treated as empty.
func (h *Handler) VerifyID(ctx context.Context, event *Event) (events.APIGatewayProxyResponse, error) {
	opLogger := h.invocationLogger(ctx, "handler.verify_id")
	input, err := decodeBody(event.Payload())
	if err != nil {
		opLogger.Debug("ignoring undecodable body", zap.Error(err))
		input = map[string]interface{}{}
	}
	opLogger.Debug("verify_id invoked", zap.Int("fields", len(input)))
	return jsonResponse(verificationBody), nil
}

// Lookup returns the function registered under name.
func (h *Handler) Lookup(name string) (Func, bool) {
	switch name {
	case FunctionOCR:
		return h.OCR, true
	case FunctionVerifyID:
		return h.VerifyID, true
	}
	return nil, false
}

func (h *Handler) invocationLogger(ctx context.Context, operation string) *zap.Logger {
	var requestID string
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	return logging.WithOperation(h.logger, operation, requestID)
}

// decodeBody accepts an object body or an API Gateway string body holding
// JSON text. Other shapes decode to an empty map.
func decodeBody(payload json.RawMessage) (map[string]interface{}, error) {
	var text string
	if err := json.Unmarshal(payload, &text); err == nil {
		if text == "" {
			return map[string]interface{}{}, nil
		}
		payload = json.RawMessage(text)
	}

	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, err
	}
	if fields, ok := value.(map[string]interface{}); ok {
		return fields, nil
	}
	return map[string]interface{}{}, nil
}

func jsonResponse(body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func mustMarshal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
