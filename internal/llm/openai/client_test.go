package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm"
)

func pages() llm.ExtractRequest {
	return llm.ExtractRequest{Pages: []llm.PageImage{{Page: 1, MIMEType: "image/png", Data: []byte("png")}}}
}

func TestExtractFieldsAttachesImages(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"planInfo\":{\"landArea\":100}}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	out, err := c.ExtractFields(context.Background(), pages())
	require.NoError(t, err)
	assert.JSONEq(t, `{"planInfo":{"landArea":100}}`, string(out))

	msgs := got["messages"].([]any)
	user := msgs[1].(map[string]any)["content"].([]any)
	require.Len(t, user, 2)
	img := user[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"))
}

func TestExtractFieldsQuota(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.ExtractFields(context.Background(), pages())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.ErrorIs(t, err, common.ErrModelExtraction)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExtractFieldsClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.ExtractFields(context.Background(), pages())
	assert.ErrorIs(t, err, common.ErrModelExtraction)
	assert.NotErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExtractFieldsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	out, err := c.ExtractFields(context.Background(), pages())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestExtractFieldsNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.ExtractFields(context.Background(), pages())
	assert.ErrorIs(t, err, common.ErrModelExtraction)
}
