package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_EmbedQuery(t *testing.T) {
	var gotReq openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3],"index":0}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", WithOpenAIBaseURL(srv.URL))
	vec, err := c.EmbedQuery(context.Background(), "kafka lag")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"kafka lag"}, gotReq.Input)
	assert.Equal(t, DefaultOpenAIModel, gotReq.Model)
}

func TestOpenAIClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", WithOpenAIBaseURL(srv.URL), WithOpenAIRetryDelay(time.Millisecond))
	vec, err := c.EmbedDocument(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", WithOpenAIBaseURL(srv.URL), WithOpenAIRetryDelay(time.Millisecond))
	_, err := c.EmbedDocument(context.Background(), "doc")
	require.ErrorContains(t, err, "bad input")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("").EmbedQuery(context.Background(), "q")
	require.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestOllamaClient_UsesTaskPrefixes(t *testing.T) {
	var inputs []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "custom-model", req.Model)
		inputs = append(inputs, req.Input)
		w.Write([]byte(`{"embeddings":[[0.5,0.5]]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewOllamaClient(WithOllamaURL(srv.URL), WithOllamaModel("custom-model"))
	_, err := c.EmbedDocument(context.Background(), "body")
	require.NoError(t, err)
	vec, err := c.EmbedQuery(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.5}, vec)
	assert.Equal(t, []string{"search_document: body", "search_query: question"}, inputs)
}

func TestOllamaClient_BaseURLForms(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[1,0]]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, base := range []string{srv.URL, srv.URL + "/", srv.URL + "/api/embed"} {
		vec, err := NewOllamaClient(WithOllamaURL(base)).EmbedQuery(context.Background(), "q")
		require.NoError(t, err, base)
		assert.Equal(t, []float32{1, 0}, vec)
	}
}

func TestOllamaClient_DefaultURL(t *testing.T) {
	c := NewOllamaClient(WithOllamaURL(""))
	assert.Equal(t, DefaultOllamaURL, c.baseURL)
}

func TestOllamaClient_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOllamaClient(WithOllamaURL(srv.URL)).EmbedQuery(ctx, "q")
	require.Error(t, err)
}
