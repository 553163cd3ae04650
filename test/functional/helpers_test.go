//go:build functional

// Package functional exercises a running articulos API server over real HTTP
// and WebSocket connections.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/articulos-api/internal/config"
	"github.com/vyrodovalexey/articulos-api/internal/server"
	"github.com/vyrodovalexey/articulos-api/internal/store"
)

// Environment variable names for test configuration.
const (
	EnvTestServerHost    = "TEST_SERVER_HOST"
	EnvTestTimeout       = "TEST_TIMEOUT"
	EnvTestMetricsEnable = "TEST_METRICS_ENABLED"
)

// Default test configuration values.
const (
	DefaultTestHost         = "localhost"
	DefaultTestTimeout      = 30 * time.Second
	DefaultRequestTimeout   = 5 * time.Second
	DefaultWebSocketTimeout = 10 * time.Second
	DefaultShutdownTimeout  = 5 * time.Second
)

// TestConfig holds test configuration loaded from environment.
type TestConfig struct {
	Host           string
	Timeout        time.Duration
	MetricsEnabled bool
}

// LoadTestConfig loads test configuration from environment variables.
func LoadTestConfig() *TestConfig {
	cfg := &TestConfig{
		Host:    DefaultTestHost,
		Timeout: DefaultTestTimeout,
	}

	if host := os.Getenv(EnvTestServerHost); host != "" {
		cfg.Host = host
	}

	if timeoutStr := os.Getenv(EnvTestTimeout); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	if metricsStr := os.Getenv(EnvTestMetricsEnable); metricsStr != "" {
		if enabled, err := strconv.ParseBool(metricsStr); err == nil {
			cfg.MetricsEnabled = enabled
		}
	}

	return cfg
}

// TestServer runs the full server on a free port with a file store in a
// temporary directory.
type TestServer struct {
	Server    *server.Server
	StorePath string
	BaseURL   string
	WSURL     string
	timeout   time.Duration
	t         *testing.T
	mu        sync.Mutex
	started   bool
}

// NewTestServer creates a test server backed by a fresh items file.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithFile(t, filepath.Join(t.TempDir(), "articulos.json"))
}

// NewTestServerWithFile creates a test server backed by the given items file.
func NewTestServerWithFile(t *testing.T, storePath string) *TestServer {
	t.Helper()

	testCfg := LoadTestConfig()

	listener, err := net.Listen("tcp", net.JoinHostPort(testCfg.Host, "0"))
	if err != nil {
		t.Fatalf("Failed to find available port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	if err := listener.Close(); err != nil {
		t.Fatalf("Failed to release port: %v", err)
	}

	cfg := config.Default()
	cfg.Server.Port = port
	cfg.Log.Level = "error"
	cfg.Shutdown.Timeout = DefaultShutdownTimeout
	cfg.Metrics.Enabled = testCfg.MetricsEnabled
	cfg.Store.Path = storePath

	logger := zap.NewNop()

	itemStore, err := store.OpenFileStore(storePath, logger)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	return &TestServer{
		Server:    server.New(cfg, logger, itemStore),
		StorePath: storePath,
		BaseURL:   fmt.Sprintf("http://%s:%d", testCfg.Host, port),
		WSURL:     fmt.Sprintf("ws://%s:%d", testCfg.Host, port),
		timeout:   testCfg.Timeout,
		t:         t,
	}
}

// Start starts the test server and waits until /health answers.
func (ts *TestServer) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return
	}

	go func() {
		if err := ts.Server.Start(); err != nil {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	ts.waitForReady()
	ts.started = true
}

func (ts *TestServer) waitForReady() {
	ctx, cancel := context.WithTimeout(context.Background(), ts.timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ts.t.Fatalf("Server did not become ready within timeout")
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.BaseURL+"/health", nil)
			if err != nil {
				ts.t.Fatalf("Failed to build readiness request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
	}
}

// Stop gracefully stops the test server.
func (ts *TestServer) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := ts.Server.Shutdown(ctx); err != nil {
		ts.t.Logf("Server shutdown error: %v", err)
	}

	ts.started = false
}

// HTTPClient provides a configured HTTP client for tests.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a new HTTP client for testing.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		baseURL: baseURL,
	}
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do sends body with the given content type. Non-string bodies are
// encoded as JSON.
func (c *HTTPClient) Do(ctx context.Context, method, path, contentType string, body any) (*Response, error) {
	var bodyReader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		bodyReader = bytes.NewBufferString(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, "", nil)
}

// PostJSON performs a POST request with a JSON body.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, "application/json", body)
}

// PutJSON performs a PUT request with a JSON body.
func (c *HTTPClient) PutJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, "application/json", body)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, "", nil)
}

// Envelope is the response body of every API call.
type Envelope struct {
	Error   bool            `json:"error"`
	Codigo  int             `json:"codigo"`
	Mensaje string          `json:"mensaje"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ItemResponse represents an item in API responses.
type ItemResponse struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// ParseEnvelope parses a response envelope.
func ParseEnvelope(t *testing.T, resp *Response) *Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		t.Fatalf("Failed to parse envelope %q: %v", resp.Body, err)
	}
	return &env
}

// ParseItem parses the data of an envelope as one item.
func ParseItem(t *testing.T, env *Envelope) ItemResponse {
	t.Helper()

	var item ItemResponse
	if err := json.Unmarshal(env.Data, &item); err != nil {
		t.Fatalf("Failed to parse item: %v", err)
	}
	return item
}

// ParseItems parses the data of an envelope as a list of items.
func ParseItems(t *testing.T, env *Envelope) []ItemResponse {
	t.Helper()

	var items []ItemResponse
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("Failed to parse items: %v", err)
	}
	return items
}

// AssertStatusCode asserts that the response has the expected status code.
func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// AssertEnvelope asserts the error flag, status mirror and message of an envelope.
func AssertEnvelope(t *testing.T, env *Envelope, wantError bool, wantCodigo int, wantMensaje string) {
	t.Helper()
	if env.Error != wantError || env.Codigo != wantCodigo || env.Mensaje != wantMensaje {
		t.Errorf("Envelope = {error:%v codigo:%d mensaje:%q}, want {error:%v codigo:%d mensaje:%q}",
			env.Error, env.Codigo, env.Mensaje, wantError, wantCodigo, wantMensaje)
	}
}

// LogTestStart logs the start of a test.
func LogTestStart(t *testing.T, testID, testName string) {
	t.Helper()
	t.Logf("Starting test %s: %s", testID, testName)
}

// LogTestEnd logs the end of a test.
func LogTestEnd(t *testing.T, testID string) {
	t.Helper()
	t.Logf("Completed test %s", testID)
}
