package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"article-extractor/internal/config"
	"article-extractor/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"bad url", models.NewBadURLError("foo", nil), http.StatusBadRequest},
		{"validation", models.NewValidationError("u", "404"), http.StatusUnprocessableEntity},
		{"fetch", models.NewFetchError("u", fmt.Errorf("refused")), http.StatusBadGateway},
		{"deadline", models.NewFetchError("u", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"parse", models.NewParseError("u", "empty html", nil), http.StatusInternalServerError},
		{"extraction", models.NewExtractionError("u", "content", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestOptionsFromQuery(t *testing.T) {
	opts := OptionsFromQuery(url.Values{})
	assert.True(t, opts.FetchAllPages)
	assert.False(t, opts.ParseNon2xx)
	assert.Zero(t, opts.MaxPages)

	opts = OptionsFromQuery(url.Values{
		"fetch_all_pages": {"false"},
		"parse_non_2xx":   {"1"},
		"max_pages":       {"3"},
	})
	assert.False(t, opts.FetchAllPages)
	assert.True(t, opts.ParseNon2xx)
	assert.Equal(t, 3, opts.MaxPages)

	opts = OptionsFromQuery(url.Values{"fetch_all_pages": {"maybe"}, "max_pages": {"-2"}})
	assert.True(t, opts.FetchAllPages)
	assert.Zero(t, opts.MaxPages)
}

func TestTimeout(t *testing.T) {
	def, lo, hi := 30*time.Second, time.Second, time.Minute

	assert.Equal(t, def, Timeout("", def, lo, hi))
	assert.Equal(t, def, Timeout("soon", def, lo, hi))
	assert.Equal(t, 5*time.Second, Timeout("5000", def, lo, hi))
	assert.Equal(t, lo, Timeout("10", def, lo, hi))
	assert.Equal(t, hi, Timeout("999999", def, lo, hi))
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(config.Default(), zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, reg)

	cfg := config.Default()
	cfg.RulesDir = "../rules/testdata/valid"
	reg, err = LoadRegistry(cfg, zerolog.Nop())
	require.NoError(t, err)
	_, ok := reg.Lookup("example.com")
	assert.True(t, ok)

	cfg.RulesDir = "../rules/testdata/invalid"
	_, err = LoadRegistry(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
