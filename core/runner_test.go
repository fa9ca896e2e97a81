package core

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRecording struct {
	recorder *mockRecorder
	endpoint string
	buf      bytes.Buffer
}

func (r *mockRecording) Write(p []byte) (int, error) {
	return r.buf.Write(p)
}

func (r *mockRecording) Commit(meta *Meta) (string, error) {
	r.recorder.bodies[r.endpoint] = r.buf.String()
	r.recorder.metas[r.endpoint] = meta.Line()
	return "stored" + r.endpoint, nil
}

func (r *mockRecording) Discard() error {
	r.recorder.discarded++
	return nil
}

type mockRecorder struct {
	bodies    map[string]string
	metas     map[string]string
	failures  []string
	discarded int
	createErr error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{
		bodies: make(map[string]string),
		metas:  make(map[string]string),
	}
}

func (r *mockRecorder) Create(endpoint string) (Recording, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &mockRecording{recorder: r, endpoint: endpoint}, nil
}

func (r *mockRecorder) RecordFailure(meta *Meta) error {
	r.failures = append(r.failures, meta.Status()+" "+meta.Endpoint)
	return nil
}

type apiServer struct {
	*httptest.Server
	accessLog []string
	mutex     sync.Mutex
}

func newAPIServer(t *testing.T) *apiServer {
	s := &apiServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.accessLog = append(s.accessLog, r.URL.RequestURI())
		s.mutex.Unlock()
		switch r.URL.Path {
		case "/api/v1/status":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/v1/devices":
			w.Write([]byte(`[{"id":1},{"id":2}]`))
		case "/api/v1/text":
			w.Write([]byte("plain text"))
		case "/api/v1/panic":
			w.Write([]byte("boom"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) AccessLog() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.accessLog...)
}

func newTestConfig(t *testing.T, baseURL string, endpoints string) (*Config, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	endpointsFile := filepath.Join(dir, "endpoints.txt")
	require.NoError(t, os.WriteFile(endpointsFile, []byte(endpoints), 0644))
	netrcPath := filepath.Join(dir, ".netrc")
	require.NoError(t, os.WriteFile(netrcPath, []byte("default login u password p\n"), 0600))
	stdout := bytes.NewBuffer(nil)
	config := NewConfig(endpointsFile)
	config.BaseURL = baseURL
	config.NetrcPath = netrcPath
	config.HTTPClient = &http.Client{}
	config.Stdout = stdout
	return config, stdout
}

func TestNewRunner(t *testing.T) {
	t.Run("missing endpoints file", func(t *testing.T) {
		config, _ := newTestConfig(t, "http://localhost", "")
		config.EndpointsFile = filepath.Join(t.TempDir(), "missing.txt")
		_, err := NewRunner(config)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("missing credential file", func(t *testing.T) {
		config, _ := newTestConfig(t, "http://localhost", "")
		config.NetrcPath = filepath.Join(t.TempDir(), ".netrc")
		_, err := NewRunner(config)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestRunner(t *testing.T) {
	t.Run("streaming", func(t *testing.T) {
		server := newAPIServer(t)
		config, stdout := newTestConfig(t, server.URL, "# comment\n\n/api/v1/status\n  /api/v1/missing  \n#/api/v1/devices\n/api/v1/devices?limit=10\n")
		results := make([]*Result, 0)
		config.OnResult = func(result *Result) {
			results = append(results, result)
		}
		config.Formatter = func(body []byte) ([]byte, error) {
			t.Fatal("formatter must not be used in streaming mode")
			return nil, nil
		}
		r, err := NewRunner(config)
		require.NoError(t, err)
		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 3, Failed: 1}, summary)
		assert.Equal(t, []string{"/api/v1/status", "/api/v1/missing", "/api/v1/devices?limit=10"}, server.AccessLog())
		assert.Equal(t, `{"status":"ok"}{"error":"not found"}[{"id":1},{"id":2}]`, stdout.String())
		require.Len(t, results, 3)
		assert.Equal(t, 200, results[0].StatusCode)
		assert.Equal(t, server.URL+"/api/v1/status", results[0].URL)
		assert.Equal(t, int64(15), results[0].Size)
		assert.Empty(t, results[0].Path)
		assert.Equal(t, 404, results[1].StatusCode)
		assert.Equal(t, "/api/v1/missing", results[1].Endpoint)
		assert.Equal(t, 200, results[2].StatusCode)
	})

	t.Run("storage", func(t *testing.T) {
		server := newAPIServer(t)
		config, stdout := newTestConfig(t, server.URL, "/api/v1/status\n/api/v1/missing\n/api/v1/text\n")
		recorder := newMockRecorder()
		config.Recorder = recorder
		config.Formatter = func(body []byte) ([]byte, error) {
			if body[0] != '{' {
				return nil, errors.New("not an object")
			}
			return append([]byte("pretty:"), body...), nil
		}
		var paths []string
		config.OnResult = func(result *Result) {
			paths = append(paths, result.Path)
		}
		r, err := NewRunner(config)
		require.NoError(t, err)
		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 3, Failed: 1}, summary)
		assert.Equal(t, map[string]string{
			"/api/v1/status":  `{"status":"ok"}`,
			"/api/v1/missing": `{"error":"not found"}`,
			"/api/v1/text":    "plain text",
		}, recorder.bodies)
		assert.Regexp(t, `^200 \d+\.\d{6} 15$`, recorder.metas["/api/v1/status"])
		assert.Regexp(t, `^404 \d+\.\d{6} 21$`, recorder.metas["/api/v1/missing"])
		assert.Equal(t, []string{"404 /api/v1/missing"}, recorder.failures)
		assert.Equal(t, `pretty:{"status":"ok"}pretty:{"error":"not found"}plain text`, stdout.String())
		assert.Equal(t, []string{"stored/api/v1/status", "stored/api/v1/missing", "stored/api/v1/text"}, paths)
	})

	t.Run("transport error continues", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()
		config, _ := newTestConfig(t, closed.URL, "/a\n/b\n")
		recorder := newMockRecorder()
		config.Recorder = recorder
		var results []*Result
		config.OnResult = func(result *Result) {
			results = append(results, result)
		}
		r, err := NewRunner(config)
		require.NoError(t, err)
		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 2, Failed: 2}, summary)
		require.Len(t, results, 2)
		assert.Error(t, results[0].Err)
		assert.Equal(t, []string{"000 /a", "000 /b"}, recorder.failures)
		assert.Regexp(t, `^000 \d+\.\d{6} 0$`, recorder.metas["/a"])
	})

	t.Run("truncated 2xx body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "100")
			w.Write([]byte(`{"partial":`))
		}))
		defer server.Close()
		config, _ := newTestConfig(t, server.URL, "/x\n")
		recorder := newMockRecorder()
		config.Recorder = recorder
		var results []*Result
		config.OnResult = func(result *Result) {
			results = append(results, result)
		}
		r, err := NewRunner(config)
		require.NoError(t, err)
		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 1, Failed: 1}, summary)
		require.Len(t, results, 1)
		assert.Error(t, results[0].Err)
		assert.Equal(t, Error, results[0].Severity())
		assert.Equal(t, `{"partial":`, recorder.bodies["/x"])
		assert.Regexp(t, `^200 \d+\.\d{6} 11$`, recorder.metas["/x"])
		assert.Empty(t, recorder.failures)
	})

	t.Run("recorder error is fatal", func(t *testing.T) {
		server := newAPIServer(t)
		config, _ := newTestConfig(t, server.URL, "/api/v1/status\n/api/v1/devices\n")
		recorder := newMockRecorder()
		recorder.createErr = errors.New("read-only file system")
		config.Recorder = recorder
		r, err := NewRunner(config)
		require.NoError(t, err)
		summary, err := r.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read-only file system")
		assert.Equal(t, 0, summary.Total)
		assert.Empty(t, server.AccessLog())
	})

	t.Run("panic is fatal", func(t *testing.T) {
		server := newAPIServer(t)
		config, _ := newTestConfig(t, server.URL, "/api/v1/panic\n/api/v1/status\n")
		config.OnResult = func(result *Result) {
			panic("handler bug")
		}
		r, err := NewRunner(config)
		require.NoError(t, err)
		_, err = r.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic: handler bug")
		assert.Equal(t, []string{"/api/v1/panic"}, server.AccessLog())
	})

	t.Run("cancelled", func(t *testing.T) {
		server := newAPIServer(t)
		config, _ := newTestConfig(t, server.URL, "/api/v1/status\n")
		r, err := NewRunner(config)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = r.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, server.AccessLog())
	})

	t.Run("endpoints file removed after validation", func(t *testing.T) {
		config, _ := newTestConfig(t, "http://localhost", "/a\n")
		r, err := NewRunner(config)
		require.NoError(t, err)
		require.NoError(t, os.Remove(config.EndpointsFile))
		_, err = r.Run(context.Background())
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}
