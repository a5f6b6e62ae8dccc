package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/aggregator/internal/domain"
)

// Fitbit queries the per-date daily activity summary resource.
type Fitbit struct {
	base string
	log  *logrus.Logger
}

// NewFitbit constructs the adapter against the given API base URL.
func NewFitbit(base string, log *logrus.Logger) *Fitbit {
	return &Fitbit{base: base, log: log}
}

type fitbitDistance struct {
	Activity string  `json:"activity"`
	Distance float64 `json:"distance"`
}

type fitbitSummary struct {
	CaloriesOut int              `json:"caloriesOut"`
	Steps       int              `json:"steps"`
	Distances   []fitbitDistance `json:"distances"`
}

type fitbitDailyActivity struct {
	Summary fitbitSummary       `json:"summary"`
	Errors  []map[string]string `json:"errors,omitempty"`
}

// Name implements domain.Provider.
func (f *Fitbit) Name() domain.Platform {
	return domain.PlatformFitbit
}

// Fetch retrieves the daily summary and extracts the requested metric.
// Distances come back in kilometers already; the value on the entry whose
// activity is "total" covers the whole day.
func (f *Fitbit) Fetch(ctx context.Context, credential string, kind domain.MetricKind, date time.Time) (float64, error) {
	url := fmt.Sprintf("%s/user/-/activities/date/%s.json", f.base, date.Format(domain.ISODateLayout))

	body, status, err := get(ctx, credential, url)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, domain.ErrNoData
	}
	if status < 200 || status >= 300 {
		return 0, fmt.Errorf("fitbit returned %d", status)
	}

	var daily fitbitDailyActivity
	if err := json.Unmarshal(body, &daily); err != nil {
		return 0, fmt.Errorf("parse fitbit daily activity: %w", err)
	}

	if len(daily.Errors) > 0 {
		for _, e := range daily.Errors {
			f.log.WithFields(logrus.Fields{
				"errorType": e["errorType"],
				"message":   e["message"],
			}).Error("fitbit daily activity request failed")
		}
		return 0, fmt.Errorf("fitbit reported %d errors", len(daily.Errors))
	}

	switch kind {
	case domain.MetricSteps:
		return float64(daily.Summary.Steps), nil
	case domain.MetricCalories:
		return float64(daily.Summary.CaloriesOut), nil
	case domain.MetricDistance:
		for _, d := range daily.Summary.Distances {
			if d.Activity == "total" {
				return d.Distance, nil
			}
		}
		return 0, domain.ErrNoData
	default:
		return 0, fmt.Errorf("fitbit has no signal for metric kind %q", kind)
	}
}
