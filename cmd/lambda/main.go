package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"time"

	"article-extractor/internal/models"
	"article-extractor/internal/scraper"
	"article-extractor/internal/service"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
)

// LambdaHandler serves parse requests behind API Gateway
type LambdaHandler struct {
	scraper *scraper.Scraper
	apiKey  string
	logger  zerolog.Logger
}

func NewLambdaHandler(s *scraper.Scraper, apiKey string, logger zerolog.Logger) *LambdaHandler {
	return &LambdaHandler{scraper: s, apiKey: apiKey, logger: logger}
}

var baseHeaders = map[string]string{
	"Content-Type":                 "application/json; charset=utf-8",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Api-Key,x-api-key",
	"Access-Control-Allow-Methods": "GET,OPTIONS",
}

// Handler parses the article named by the url query parameter
func (h *LambdaHandler) Handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if event.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: baseHeaders}, nil
	}

	apiKey := event.Headers["x-api-key"]
	if apiKey == "" {
		apiKey = event.Headers["X-Api-Key"]
	}
	if apiKey == "" {
		apiKey = event.QueryStringParameters["key"]
	}

	if h.apiKey == "" {
		h.logger.Error().Msg("SCRAPE_API_KEY environment variable not set")
		return h.errorResponse(http.StatusInternalServerError, "Server misconfiguration"), nil
	}
	if apiKey != h.apiKey {
		return h.errorResponse(http.StatusUnauthorized, "Invalid or missing API key"), nil
	}

	q := url.Values{}
	for k, v := range event.QueryStringParameters {
		q.Set(k, v)
	}
	for k, vs := range event.MultiValueQueryStringParameters {
		q[k] = vs
	}

	targets := q["url"]
	if len(targets) == 0 || targets[0] == "" {
		return h.errorResponse(http.StatusBadRequest, "Missing \"url\" query parameter"), nil
	}

	// Leave a safety margin before the function itself is killed.
	timeout := 70 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(max(time.Until(deadline)-3*time.Second, time.Second), timeout)
	}
	opts := service.OptionsFromQuery(q)

	h.logger.Info().Strs("urls", targets).Dur("timeout", timeout).Msg("request received")
	start := time.Now()

	if len(targets) > 1 {
		return h.jsonResponse(http.StatusOK, h.scraper.ParseAllWithTimeout(ctx, targets, opts, timeout)), nil
	}

	result, err := h.scraper.ParseWithTimeout(ctx, targets[0], opts, timeout)
	took := time.Since(start)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", targets[0]).Dur("took", took).Msg("parse failed")
		return h.jsonResponse(service.StatusFor(err), models.NewErrorResult(err)), nil
	}

	h.logger.Info().Str("url", targets[0]).Dur("took", took).Msg("parsed")
	return h.jsonResponse(http.StatusOK, models.ScrapeResponse{
		ParseResult: result,
		Metadata:    service.Metadata(targets[0], took),
	}), nil
}

func (h *LambdaHandler) errorResponse(statusCode int, message string) events.APIGatewayProxyResponse {
	return h.jsonResponse(statusCode, models.ErrorResult{Error: true, Message: message})
}

func (h *LambdaHandler) jsonResponse(statusCode int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		h.logger.Error().Err(err).Msg("encode response")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    baseHeaders,
			Body:       `{"error":true,"message":"Failed to serialize response"}`,
		}
	}
	return events.APIGatewayProxyResponse{StatusCode: statusCode, Headers: baseHeaders, Body: string(body)}
}

func main() {
	logger := service.NewLogger(os.Stdout)

	s, _, err := service.New(os.Getenv("SCRAPE_CONFIG"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}

	handler := NewLambdaHandler(s, os.Getenv("SCRAPE_API_KEY"), logger)
	lambda.Start(handler.Handler)
}
