package vision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/adapter/vision"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewHTTPClient(config.VisionConfig{
		Endpoint: srv.URL,
		APIKey:   "test-key",
		Model:    "crop-disease-v2",
		Timeout:  5 * time.Second,
	}, zap.NewNop())

	return client, srv
}

func TestHTTPClient_Analyze(t *testing.T) {
	ctx := context.Background()
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	t.Run("parses the strict response schema", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"crop_name": "Maize",
				"disease_name": "common rust",
				"confidence": 0.92,
				"severity": "high",
				"urgency": "within_week",
				"estimated_yield_loss_pct": 30,
				"symptoms": ["orange pustules"],
				"cost_of_treatment": {"low": 25, "high": 60, "currency": "EUR"}
			}`))
		})

		d, err := client.Analyze(ctx, image, "image/jpeg")

		require.NoError(t, err)
		assert.Equal(t, "Maize", d.CropName)
		assert.Equal(t, "common rust", d.DiseaseName)
		assert.Equal(t, 92, d.Confidence)
		assert.Equal(t, 30, d.EstimatedYieldLossPct)
		assert.Equal(t, 25.0, d.CostLow)
		assert.Equal(t, "EUR", d.CostCurrency)
	})

	t.Run("treats confidence above one as already percent", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"crop_name": "Wheat", "confidence": 87.4}`))
		})

		d, err := client.Analyze(ctx, image, "image/jpeg")

		require.NoError(t, err)
		assert.Equal(t, 87, d.Confidence)
	})

	t.Run("accepts a diagnosis without a crop name", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"disease_name": "rust", "confidence": 0.8}`))
		})

		d, err := client.Analyze(ctx, image, "image/jpeg")

		require.NoError(t, err)
		assert.Empty(t, d.CropName)
		assert.Equal(t, "rust", d.DiseaseName)
		assert.Equal(t, 80, d.Confidence)
	})

	t.Run("parses a result wrapper", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result": {"crop_name": "Rice", "disease_name": "blast", "confidence": 0.8}}`))
		})

		d, err := client.Analyze(ctx, image, "image/jpeg")

		require.NoError(t, err)
		assert.Equal(t, "Rice", d.CropName)
		assert.Equal(t, 80, d.Confidence)
	})

	t.Run("parses json inside a code fence", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"text": "` + "```json\\n{\\\"crop_name\\\": \\\"Tomato\\\", \\\"confidence\\\": 0.7}\\n```" + `"}`))
		})

		d, err := client.Analyze(ctx, image, "image/jpeg")

		require.NoError(t, err)
		assert.Equal(t, "Tomato", d.CropName)
		assert.Equal(t, 70, d.Confidence)
	})

	t.Run("missing api key is not configured", func(t *testing.T) {
		client := NewHTTPClient(config.VisionConfig{Endpoint: "http://localhost:0", Timeout: time.Second}, zap.NewNop())

		_, err := client.Analyze(ctx, image, "image/jpeg")

		var visionErr *vision.Error
		require.True(t, errors.As(err, &visionErr))
		assert.Equal(t, vision.ErrorKindNotConfigured, visionErr.Kind)
		assert.False(t, visionErr.Retryable())
	})

	t.Run("unreachable endpoint is retryable", func(t *testing.T) {
		client := NewHTTPClient(config.VisionConfig{
			Endpoint: "http://127.0.0.1:1",
			APIKey:   "test-key",
			Timeout:  time.Second,
		}, zap.NewNop())

		_, err := client.Analyze(ctx, image, "image/jpeg")

		var visionErr *vision.Error
		require.True(t, errors.As(err, &visionErr))
		assert.Equal(t, vision.ErrorKindUnreachable, visionErr.Kind)
		assert.True(t, visionErr.Retryable())
	})

	t.Run("4xx rejection is not retryable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad image", http.StatusUnprocessableEntity)
		})

		_, err := client.Analyze(ctx, image, "image/jpeg")

		var visionErr *vision.Error
		require.True(t, errors.As(err, &visionErr))
		assert.Equal(t, vision.ErrorKindRejected, visionErr.Kind)
		assert.Equal(t, http.StatusUnprocessableEntity, visionErr.StatusCode)
		assert.False(t, visionErr.Retryable())
	})

	t.Run("5xx rejection is retryable", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				http.Error(w, "internal", http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"crop_name": "Maize", "confidence": 0.9}`))
		})

		_, err := client.Analyze(ctx, image, "image/jpeg")
		var visionErr *vision.Error
		require.True(t, errors.As(err, &visionErr))
		assert.Equal(t, vision.ErrorKindRejected, visionErr.Kind)
		assert.True(t, visionErr.Retryable())

		d, err := client.Analyze(ctx, image, "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "Maize", d.CropName)
	})

	t.Run("unparseable body is malformed", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"unexpected": true}`))
		})

		_, err := client.Analyze(ctx, image, "image/jpeg")

		var visionErr *vision.Error
		require.True(t, errors.As(err, &visionErr))
		assert.Equal(t, vision.ErrorKindMalformed, visionErr.Kind)
		assert.False(t, visionErr.Retryable())
	})
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"fraction", 0.92, 92},
		{"fraction boundary", 1.0, 100},
		{"zero", 0, 0},
		{"already percent", 87.4, 87},
		{"above range", 140, 100},
		{"negative", -0.3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vision.NormalizeConfidence(tt.in))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
