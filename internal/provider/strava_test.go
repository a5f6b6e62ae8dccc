package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/aggregator/internal/domain"
)

const stravaActivitiesFixture = `[
	{"distance": 1304.0, "kilojoules": 4520.0},
	{"distance": 0, "kilojoules": 0}
]`

func newStravaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer strava-token" {
			t.Errorf("missing bearer credential, got %q", r.Header.Get("Authorization"))
		}
		after := fmt.Sprintf("%d", testDate().Unix())
		before := fmt.Sprintf("%d", testDate().Unix()+secondsPerDay)
		if got := r.URL.Query().Get("after"); got != after {
			t.Errorf("after=%s does not match requested day", got)
		}
		if got := r.URL.Query().Get("before"); got != before {
			t.Errorf("before=%s does not match requested day", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestStravaFetchDistanceNormalizesToKilometers(t *testing.T) {
	server := newStravaServer(t, stravaActivitiesFixture)
	defer server.Close()

	adapter := NewStrava(server.URL, quietLogger())
	value, err := adapter.Fetch(context.Background(), "strava-token", domain.MetricDistance, testDate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(value-1.304) > 1e-9 {
		t.Fatalf("expected 1.304 got %v", value)
	}
}

func TestStravaFetchCaloriesDerivedFromKilojoules(t *testing.T) {
	server := newStravaServer(t, stravaActivitiesFixture)
	defer server.Close()

	adapter := NewStrava(server.URL, quietLogger())
	value, err := adapter.Fetch(context.Background(), "strava-token", domain.MetricCalories, testDate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 938 {
		t.Fatalf("expected 938 got %v", value)
	}
}

func TestStravaFetchStepsIsAbsentWithoutNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := NewStrava(server.URL, quietLogger())
	_, err := adapter.Fetch(context.Background(), "strava-token", domain.MetricSteps, testDate())
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData got %v", err)
	}
	if called {
		t.Fatal("steps request should not reach the upstream")
	}
}

func TestStravaFetchNoActivitiesIsAbsent(t *testing.T) {
	server := newStravaServer(t, `[]`)
	defer server.Close()

	adapter := NewStrava(server.URL, quietLogger())
	_, err := adapter.Fetch(context.Background(), "strava-token", domain.MetricDistance, testDate())
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData got %v", err)
	}
}
