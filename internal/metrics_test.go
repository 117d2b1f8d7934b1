package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"plant-maint-api/internal/sheet"
)

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	// Generate a request so the counters have something to report.
	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, httptest.NewRequest("GET", "/ping", nil))
	if testW.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", testW.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, metric := range []string{"http_requests_total", "http_request_duration_seconds"} {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric '%s' not found in response", metric)
		}
	}
	if !strings.Contains(body, `path="/ping"`) {
		t.Error("Expected metrics to contain path label for /ping endpoint")
	}
}

func TestMetricsWithChiRoutePatterns(t *testing.T) {
	metrics := NewMetrics()
	router := chi.NewRouter()
	router.Use(metrics.Middleware())
	router.Get("/stock/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, httptest.NewRequest("GET", "/stock/V%E3%83%99%E3%83%AB%E3%83%88", nil))
	if testW.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", testW.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	// Should contain the route pattern, not the actual path.
	if !strings.Contains(w.Body.String(), `path="/stock/{name}"`) {
		t.Error("Expected metrics to contain chi route pattern, not actual path")
	}
}

func TestMeasureStoreCountsOperations(t *testing.T) {
	metrics := NewMetrics()
	store := metrics.MeasureStore(sheet.NewMemoryStore())
	ctx := context.Background()

	if _, err := store.Read(ctx, sheet.StockTable); err != nil {
		t.Fatalf("Read: %v", err)
	}
	err := store.Replace(ctx, sheet.StockTable, sheet.Table{
		Columns: []string{"部品名"},
		Rows:    [][]string{{"Vベルト A型"}},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`table_store_operations_total{op="read",outcome="ok",table="stock_data"} 1`,
		`table_store_operations_total{op="replace",outcome="ok",table="stock_data"} 1`,
		"table_store_operation_duration_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMeasureStorePassesThroughErrors(t *testing.T) {
	metrics := NewMetrics()
	store := metrics.MeasureStore(erroringStore{})

	if _, err := store.Read(context.Background(), sheet.StockTable); err == nil {
		t.Fatal("expected error from wrapped store")
	}

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), `outcome="error"`) {
		t.Error("error outcome not recorded")
	}
}

type erroringStore struct{}

func (erroringStore) Read(context.Context, string) (sheet.Table, error) {
	return sheet.Table{}, sheet.ErrUnavailable
}

func (erroringStore) Replace(context.Context, string, sheet.Table) error {
	return sheet.ErrUnavailable
}
