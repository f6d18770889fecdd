package phones

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blake-leads/enrich-cli/internal/config"
)

func TestHeuristicClassifier(t *testing.T) {
	labels, err := HeuristicClassifier{}.Classify(context.Background(), []string{
		"(786) 555-0000", // mobile-first overlay
		"(954) 555-0000", // legacy code, assumed landline
		"garbage",
	})
	require.NoError(t, err)
	assert.Equal(t, []Label{LabelMobile, LabelLandline, LabelInvalid}, labels)
}

func TestRemoteClassifier(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Numbers []string `json:"numbers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type result struct {
			Number string `json:"number"`
			Type   string `json:"type"`
		}
		results := make([]result, len(req.Numbers))
		for i, n := range req.Numbers {
			typ := "landline"
			if i%2 == 0 {
				typ = "mobile"
			}
			results[i] = result{Number: n, Type: typ}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()

	c := NewRemoteClassifier(config.ClassifierConfig{
		URL:            srv.URL,
		Key:            "secret",
		BatchSize:      2,
		RequestsPerSec: 100,
	})

	labels, err := c.Classify(context.Background(), []string{
		"(954) 555-0001", "(954) 555-0002", "(954) 555-0003",
	})
	require.NoError(t, err)
	assert.Equal(t, []Label{LabelMobile, LabelLandline, LabelMobile}, labels)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestRemoteClassifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRemoteClassifier(config.ClassifierConfig{URL: srv.URL, RequestsPerSec: 100})
	_, err := c.Classify(context.Background(), []string{"(954) 555-0001"})
	require.Error(t, err)
}

func TestClassifyWithFallback(t *testing.T) {
	// No remote configured: heuristic applies.
	labels := ClassifyWithFallback(context.Background(), nil, []string{"(786) 555-0000"})
	assert.Equal(t, []Label{LabelMobile}, labels)

	// Failing remote: heuristic applies.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	c := NewRemoteClassifier(config.ClassifierConfig{URL: srv.URL, RequestsPerSec: 100})
	labels = ClassifyWithFallback(context.Background(), c, []string{"(954) 555-0000"})
	assert.Equal(t, []Label{LabelLandline}, labels)

	assert.Nil(t, ClassifyWithFallback(context.Background(), nil, nil))
}
