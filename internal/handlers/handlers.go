package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/idocr/internal/handler"
	"github.com/example/idocr/internal/usecase"
)

// MaxBodySize caps the request body forwarded to a function.
const MaxBodySize = 1 << 20

// RegisterRoutes wires the gateway endpoints to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.InvocationUseCase) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/ocr", invokeHandler(uc, handler.FunctionOCR))
	router.POST("/verify-id", invokeHandler(uc, handler.FunctionVerifyID))

	router.GET("/result/:id", func(c *gin.Context) {
		requestID := c.Param("id")
		if requestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		log, err := uc.GetResult(c.Request.Context(), requestID)
		if errors.Is(err, usecase.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request_id":     log.RequestID,
			"function":       log.Function,
			"status_code":    log.StatusCode,
			"body":           log.Body,
			"payload_sha256": log.PayloadHash,
			"created_at":     log.CreatedAt,
		})
	})

	router.GET("/metrics", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if errors.Is(err, usecase.ErrMetricsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate metrics"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

func invokeHandler(uc *usecase.InvocationUseCase, function string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		inv, err := uc.Invoke(c.Request.Context(), function, body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "function invocation failed"})
			return
		}

		contentType := "application/json"
		for key, value := range inv.Response.Headers {
			if http.CanonicalHeaderKey(key) == "Content-Type" {
				contentType = value
				continue
			}
			c.Header(key, value)
		}
		c.Header("X-Request-ID", inv.RequestID)
		c.Data(inv.Response.StatusCode, contentType, []byte(inv.Response.Body))
	}
}
