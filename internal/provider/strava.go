package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/aggregator/internal/domain"
)

// Strava queries the athlete-activities resource, windowed to one day.
type Strava struct {
	base string
	log  *logrus.Logger
}

// NewStrava constructs the adapter against the given API base URL.
func NewStrava(base string, log *logrus.Logger) *Strava {
	return &Strava{base: base, log: log}
}

const secondsPerDay int64 = 86400

// Strava reports work in kilojoules; dividing by this yields the calorie
// figure the service has always exposed.
const kilojoulesPerCalorie = 4.814

type stravaActivity struct {
	Distance   float64 `json:"distance,omitempty"`
	Kilojoules float64 `json:"kilojoules,omitempty"`
}

// Name implements domain.Provider.
func (s *Strava) Name() domain.Platform {
	return domain.PlatformStrava
}

// Fetch sums the day's activities. Distance arrives in meters and is
// normalized to kilometers; calories are derived per activity from
// kilojoules. Strava defines no steps signal, so a steps request is an
// absence, not an error.
func (s *Strava) Fetch(ctx context.Context, credential string, kind domain.MetricKind, date time.Time) (float64, error) {
	if kind == domain.MetricSteps {
		return 0, domain.ErrNoData
	}

	after := date.Unix()
	url := fmt.Sprintf("%s/athlete/activities?before=%d&after=%d", s.base, after+secondsPerDay, after)

	body, status, err := get(ctx, credential, url)
	if err != nil {
		return 0, err
	}
	if status < 200 || status >= 300 {
		return 0, fmt.Errorf("strava returned %d", status)
	}

	var activities []stravaActivity
	if err := json.Unmarshal(body, &activities); err != nil {
		return 0, fmt.Errorf("parse strava activities: %w", err)
	}
	if len(activities) == 0 {
		return 0, domain.ErrNoData
	}

	switch kind {
	case domain.MetricDistance:
		meters := 0.0
		for _, a := range activities {
			meters += a.Distance
		}
		return meters / 1000, nil
	case domain.MetricCalories:
		calories := 0
		for _, a := range activities {
			if a.Kilojoules != 0 {
				calories += int(a.Kilojoules / kilojoulesPerCalorie)
			}
		}
		return float64(calories), nil
	default:
		return 0, fmt.Errorf("strava has no signal for metric kind %q", kind)
	}
}
