package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestQueryTenantsDeduplicatesByID(t *testing.T) {
	srv := jsonServer(t, `{"elements":[
		{"id":1,"lat":43.65,"lon":-79.38,"tags":{"name":"A"}},
		{"id":1,"lat":43.65,"lon":-79.38,"tags":{"name":"A"}},
		{"id":2,"lat":43.66,"lon":-79.39,"tags":{"name":"B"}}
	]}`)
	defer srv.Close()

	c := NewClient([]string{srv.URL}, time.Millisecond, nil)
	features, err := c.QueryTenants(context.Background(), 43.65, -79.38, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 2 {
		t.Fatalf("expected 2 deduplicated features, got %d", len(features))
	}
}

func TestDisableReturnsSentinelError(t *testing.T) {
	c := NewClient([]string{"http://unused.invalid"}, time.Millisecond, nil)
	c.Disable()
	_, err := c.QueryTenants(context.Background(), 0, 0, 0)
	if err != ErrDisabled {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestRoundRobinAdvancesOnFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer bad.Close()
	good := jsonServer(t, `{"elements":[{"id":5,"lat":1,"lon":2,"tags":{"name":"Good"}}]}`)
	defer good.Close()

	c := NewClient([]string{bad.URL, good.URL}, time.Millisecond, nil)
	features, err := c.QueryTenants(context.Background(), 0, 0, 0)
	if err != nil {
		t.Fatalf("expected eventual success after failover, got error: %v", err)
	}
	if len(features) != 1 || features[0].Name != "Good" {
		t.Fatalf("expected to fail over to the healthy endpoint, got %+v", features)
	}
}
