// Command ocr-lambda serves the identity document OCR function on AWS Lambda.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/idocr/internal/handler"
	"github.com/example/idocr/internal/logging"
)

func main() {
	logger, err := logging.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	h := handler.NewHandler(logger)
	lambda.Start(h.OCR)
}
