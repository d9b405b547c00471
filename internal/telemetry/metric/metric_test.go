package metric

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry("")
	if r.Gatherer() == nil {
		t.Fatal("Gatherer() returned nil")
	}
	if _, err := r.Gatherer().Gather(); err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
}

func TestPermitObserver(t *testing.T) {
	r := NewRegistry("test")

	r.ObserveAcquire(2 * time.Millisecond)
	r.ObserveAcquire(0)
	r.ObserveTimeout(100 * time.Millisecond)
	r.ObserveRelease(5 * time.Millisecond)
	r.ObserveDoubleRelease()

	if got := testutil.ToFloat64(r.PermitsInUse); got != 1 {
		t.Errorf("permits_in_use = %v, want 1", got)
	}
	tests := []struct {
		name   string
		vec    *prometheus.CounterVec
		result string
		want   float64
	}{
		{"permit_acquire_total", r.PermitAcquires, ResultAcquired, 2},
		{"permit_acquire_total", r.PermitAcquires, ResultTimeout, 1},
		{"permit_acquire_total", r.PermitAcquires, ResultDoubleRelease, 0},
		{"permit_release_total", r.PermitReleases, ResultReleased, 1},
		{"permit_release_total", r.PermitReleases, ResultDoubleRelease, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.result, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.vec.WithLabelValues(tt.result)); got != tt.want {
				t.Errorf("%s{result=%q} = %v, want %v", tt.name, tt.result, got, tt.want)
			}
		})
	}
	if n := testutil.CollectAndCount(r.PermitWait); n != 1 {
		t.Errorf("permit_wait_seconds series = %d, want 1", n)
	}
}

func TestStoreObservers(t *testing.T) {
	r := NewRegistry("test")

	r.ObserveInsert(true)
	r.ObserveInsert(false)
	r.ObserveInsert(false)
	r.ObserveCacheOp("hit")
	r.ObserveAccountOp("withdraw", false)
	r.ObserveConstruction(time.Millisecond, nil)
	r.ObserveConstruction(time.Millisecond, errors.New("x"))

	if got := testutil.ToFloat64(r.MapInserts.WithLabelValues("rejected")); got != 2 {
		t.Errorf("map_insert_total{rejected} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.CacheOps.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache_ops_total{hit} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.AccountOps.WithLabelValues("withdraw", "rejected")); got != 1 {
		t.Errorf("account_ops_total{withdraw,rejected} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Constructions.WithLabelValues("error")); got != 1 {
		t.Errorf("singleton_constructions_total{error} = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry("")
	r.ObserveAcquire(time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "synckit_permits_in_use 1") {
		t.Errorf("body missing synckit_permits_in_use sample:\n%s", rec.Body.String())
	}
}
