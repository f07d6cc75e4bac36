package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type observed struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	calls []observed
	mu    sync.Mutex
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{method: method, route: route, status: status})
}

func TestMetricsMiddleware(t *testing.T) {
	observer := &recordingObserver{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := MetricsMiddleware(observer)(mux)

	for _, path := range []string{"/api/v1/products/1", "/api/v1/products/2", "/nope"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observed{
		{method: "GET", route: "GET /api/v1/products/{id}", status: http.StatusOK},
		{method: "GET", route: "GET /api/v1/products/{id}", status: http.StatusOK},
		{method: "GET", route: "unmatched", status: http.StatusNotFound},
	}, observer.calls)
}
