package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"article-extractor/internal/models"
	"article-extractor/internal/scraper"
	"article-extractor/internal/service"

	"github.com/rs/zerolog"
)

// CloudRunHandler serves parse requests over plain HTTP
type CloudRunHandler struct {
	scraper *scraper.Scraper
	logger  zerolog.Logger
}

func NewCloudRunHandler(s *scraper.Scraper, logger zerolog.Logger) *CloudRunHandler {
	return &CloudRunHandler{scraper: s, logger: logger}
}

// Handler parses the article named by the url query parameter. Repeating
// url returns a batch.
func (h *CloudRunHandler) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Api-Key,x-api-key")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	targets := q["url"]
	if len(targets) == 0 || targets[0] == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing \"url\" query parameter")
		return
	}

	timeout := service.Timeout(q.Get("timeout"), 240*time.Second, time.Second, 240*time.Second)
	opts := service.OptionsFromQuery(q)

	h.logger.Info().Strs("urls", targets).Dur("timeout", timeout).Msg("request received")
	start := time.Now()

	if len(targets) > 1 {
		items := h.scraper.ParseAllWithTimeout(r.Context(), targets, opts, timeout)
		h.writeJSON(w, http.StatusOK, items)
		return
	}

	result, err := h.scraper.ParseWithTimeout(r.Context(), targets[0], opts, timeout)
	took := time.Since(start)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", targets[0]).Dur("took", took).Msg("parse failed")
		h.writeJSON(w, service.StatusFor(err), models.NewErrorResult(err))
		return
	}

	h.logger.Info().Str("url", targets[0]).Dur("took", took).Msg("parsed")
	h.writeJSON(w, http.StatusOK, models.ScrapeResponse{
		ParseResult: result,
		Metadata:    service.Metadata(targets[0], took),
	})
}

func (h *CloudRunHandler) errorResponse(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, models.ErrorResult{Error: true, Message: message})
}

func (h *CloudRunHandler) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("encode response")
	}
}

func main() {
	logger := service.NewLogger(os.Stdout)

	s, _, err := service.New(os.Getenv("SCRAPE_CONFIG"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}
	handler := NewCloudRunHandler(s, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("starting server")
	http.HandleFunc("/", handler.Handler)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
