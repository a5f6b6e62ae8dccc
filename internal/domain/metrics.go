// Package domain defines the canonical metric model and the aggregation service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Platform identifies an upstream fitness platform.
type Platform string

const (
	PlatformFitbit Platform = "fitbit"
	PlatformGoogle Platform = "google"
	PlatformStrava Platform = "strava"
)

// PlatformOrder is the canonical merge order for aggregation results. Records
// are always emitted in this order, never sorted by value or name.
var PlatformOrder = []Platform{PlatformFitbit, PlatformGoogle, PlatformStrava}

// MetricKind is the dimension being aggregated.
type MetricKind string

const (
	MetricSteps    MetricKind = "steps"
	MetricCalories MetricKind = "calories"
	MetricDistance MetricKind = "distance"
)

// ParseMetricKind validates a metric kind taken from a request path.
func ParseMetricKind(raw string) (MetricKind, error) {
	switch MetricKind(raw) {
	case MetricSteps, MetricCalories, MetricDistance:
		return MetricKind(raw), nil
	default:
		return "", fmt.Errorf("unknown metric kind %q", raw)
	}
}

// MetricRecord is a normalized (platform, value) pair. Steps are a count,
// calories are kilocalories, distance is kilometers.
type MetricRecord struct {
	Platform Platform `json:"platform"`
	Value    float64  `json:"value"`
}

// ProviderLink binds a user to one upstream platform with the credential
// used to query it.
type ProviderLink struct {
	Platform    Platform
	AccessToken string
}

// ErrNoData signals that a platform has nothing recorded for the requested
// user and date. It is an absence, not a failure: the aggregation simply
// omits the platform from the result.
var ErrNoData = errors.New("no data for platform and date")

// Provider is the capability every upstream adapter implements.
type Provider interface {
	Name() Platform
	// Fetch returns the metric value in canonical units, ErrNoData when the
	// platform has nothing for this date, or any other error on upstream
	// failure.
	Fetch(ctx context.Context, credential string, kind MetricKind, date time.Time) (float64, error)
}

// LinkStore resolves the platforms linked to a user.
type LinkStore interface {
	LinksForUser(ctx context.Context, userID int) ([]ProviderLink, error)
}

// ISODateLayout is the calendar-date format used across the API and the
// upstream adapters.
const ISODateLayout = "2006-01-02"
