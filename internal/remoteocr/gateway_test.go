package remoteocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	old := retryBackoffBase
	retryBackoffBase = time.Millisecond
	t.Cleanup(func() { retryBackoffBase = old })
}

func restConfig(endpoint string, retries int) EngineConfig {
	return EngineConfig{
		Engine:     EngineGenericREST,
		Endpoint:   endpoint,
		AuthMethod: AuthBearer,
		AuthToken:  "tok",
		Timeout:    5 * time.Second,
		RetryCount: retries,
		VerifyTLS:  true,
		Language:   "eng",
	}
}

func TestParseUnconfiguredOptionalBackends(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	tests := []struct {
		name string
		cfg  EngineConfig
	}{
		{
			name: "doc-intel without api key",
			cfg:  EngineConfig{Engine: EngineVisionDocIntel, Endpoint: server.URL},
		},
		{
			name: "bridge without api key",
			cfg:  EngineConfig{Engine: EngineBridgeOCR, Endpoint: server.URL},
		},
		{
			name: "bridge without endpoint",
			cfg:  EngineConfig{Engine: EngineBridgeOCR, APIKey: "key"},
		},
		{
			name: "unknown engine",
			cfg:  EngineConfig{Engine: "tesseract-cloud", Endpoint: server.URL, APIKey: "key"},
		},
		{
			name: "empty engine",
			cfg:  EngineConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewGateway(tt.cfg, nil, nil)
			result, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
			require.NoError(t, err)
			assert.Empty(t, result.Text)
			assert.Empty(t, result.Archive)
		})
	}

	assert.Equal(t, int64(0), calls.Load(), "unconfigured backends must not touch the network")
}

func TestParseGenericRESTWithoutEndpoint(t *testing.T) {
	gw := NewGateway(EngineConfig{Engine: EngineGenericREST}, nil, nil)

	_, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindConfiguration, fail.Kind)
	assert.Contains(t, fail.Message, "endpoint")
}

func TestParseGenericRESTSuccess(t *testing.T) {
	var gotBody restPayload
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  extracted text  "}`))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 3), nil, nil)
	result, err := gw.Parse(context.Background(), []byte("document bytes"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "extracted text", result.Text)
	assert.Empty(t, result.Archive)
	assert.Equal(t, "Bearer tok", gotAuth)

	decoded, err := base64.StdEncoding.DecodeString(gotBody.Document)
	require.NoError(t, err)
	assert.Equal(t, []byte("document bytes"), decoded)
	assert.Equal(t, "application/pdf", gotBody.MimeType)
	assert.Equal(t, "eng", gotBody.Language)
}

func TestParseGenericRESTRawTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain text body"))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 1), nil, nil)
	result, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "plain text body", result.Text)
}

func TestParseGenericRESTUnknownShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","confidence":0.8}`))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 3), nil, nil)
	_, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindResponseShape, fail.Kind)
	assert.Contains(t, fail.Message, "confidence")
	assert.Contains(t, fail.Message, "status")
}

func TestParseRetriesExhaustServerErrors(t *testing.T) {
	fastBackoff(t)

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 3), nil, nil)
	_, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindServerError, fail.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fail.Status)
	assert.Contains(t, fail.Message, "All 3 attempts failed")
	assert.Equal(t, int64(3), calls.Load())
}

func TestParseSingleAttemptExhaustionMessage(t *testing.T) {
	fastBackoff(t)

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 1), nil, nil)
	_, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindServerError, fail.Kind)
	assert.Contains(t, fail.Message, "All 1 attempts failed")
	assert.Equal(t, int64(1), calls.Load())
}

func TestParseSanitizesRemoteText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Page one\u0000\u0001 done\n"}`))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 1), nil, nil)
	result, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "Page one done", result.Text)
}

func TestParseClientErrorIsNotRetried(t *testing.T) {
	fastBackoff(t)

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"unsupported language","error_code":"LANG"}`))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 5), nil, nil)
	_, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindClientError, fail.Kind)
	assert.Contains(t, fail.Message, "422")
	assert.Contains(t, fail.Message, "unsupported language")
	assert.Contains(t, fail.Message, "error_code: LANG")
	assert.NotContains(t, fail.Message, "attempts failed")
	assert.Equal(t, int64(1), calls.Load())
}

func TestParseRecoversOnSecondAttempt(t *testing.T) {
	fastBackoff(t)

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"recovered"}`))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 3), nil, nil)
	result, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Text)
	assert.Equal(t, int64(2), calls.Load())
}

func TestParseTransportErrorIsClassified(t *testing.T) {
	fastBackoff(t)

	// Closed server: connection refused on every attempt.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	gw := NewGateway(restConfig(endpoint, 2), nil, nil)
	_, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, KindTransport, fail.Kind)
	assert.Contains(t, fail.Message, "All 2 attempts failed")
}

func TestParseRetryAbortsOnCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// Full-size backoff: cancellation must cut the wait short.
	gw := NewGateway(restConfig(server.URL, 5), nil, nil)
	start := time.Now()
	_, err := gw.Parse(ctx, []byte("doc"), "application/pdf")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	assert.Contains(t, fail.Message, "canceled while waiting to retry")
}

func TestParseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":"stable output"}`))
	}))
	defer server.Close()

	gw := NewGateway(restConfig(server.URL, 3), nil, nil)

	first, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.NoError(t, err)
	second, err := gw.Parse(context.Background(), []byte("doc"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSupportedMimeTypes(t *testing.T) {
	t.Run("invalid backend yields empty map", func(t *testing.T) {
		gw := NewGateway(EngineConfig{Engine: EngineBridgeOCR}, nil, nil)
		assert.Empty(t, gw.SupportedMimeTypes())
	})

	t.Run("configured generic REST claims PDFs and images", func(t *testing.T) {
		gw := NewGateway(restConfig("http://ocr.local", 3), nil, nil)
		types := gw.SupportedMimeTypes()
		assert.Equal(t, ".pdf", types["application/pdf"])
		assert.Equal(t, ".jpg", types["image/jpeg"])
		assert.Equal(t, ".heic", types["image/heic"])
	})

	t.Run("configured bridge claims provider types", func(t *testing.T) {
		gw := NewGateway(EngineConfig{Engine: EngineBridgeOCR, Endpoint: "http://bridge.local", APIKey: "k"}, nil, nil)
		types := gw.SupportedMimeTypes()
		assert.Equal(t, ".pdf", types["application/pdf"])
		assert.Equal(t, ".tiff", types["image/tiff"])
		_, hasHeic := types["image/heic"]
		assert.False(t, hasHeic)
	})
}

func TestGatewayWeight(t *testing.T) {
	gw := NewGateway(restConfig("http://ocr.local", 3), nil, nil)
	assert.Equal(t, 10, gw.Weight())
	assert.Equal(t, "remote-ocr", gw.Name())
}
