// Package models holds the value records exchanged between the Oura
// integration, the AI coach and the HTTP layer. Records are constructed
// fresh per request and never mutated afterwards.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day (no time component) that marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate validates and parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return Date{t}, nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SleepRecord combines the duration breakdown from the detailed sleep
// endpoint with the composite score from the daily summary endpoint.
// All durations are in seconds.
type SleepRecord struct {
	Date               Date `json:"date"`
	TotalSleepDuration int  `json:"total_sleep_duration"`
	DeepSleepDuration  int  `json:"deep_sleep_duration"`
	RemSleepDuration   int  `json:"rem_sleep_duration"`
	LightSleepDuration int  `json:"light_sleep_duration"`
	SleepScore         int  `json:"sleep_score"` // 0-100

	Restfulness     *int `json:"restfulness,omitempty"`      // 0-100
	SleepEfficiency *int `json:"sleep_efficiency,omitempty"` // percentage
}

// ReadinessRecord mirrors the provider's daily readiness resource. The
// optional fields come from the "contributors" object and stay nil when
// the provider omits them.
type ReadinessRecord struct {
	Date           Date `json:"date"`
	ReadinessScore int  `json:"readiness_score"` // 0-100

	TemperatureDeviation *float64 `json:"temperature_deviation,omitempty"` // celsius from baseline
	RestingHeartRate     *int     `json:"resting_heart_rate,omitempty"`    // bpm
	HRVBalance           *int     `json:"hrv_balance,omitempty"`           // 0-100
	RecoveryIndex        *int     `json:"recovery_index,omitempty"`        // 0-100
	PreviousNightScore   *int     `json:"previous_night_score,omitempty"`  // 0-100
	SleepBalance         *int     `json:"sleep_balance,omitempty"`         // 0-100
	ActivityBalance      *int     `json:"activity_balance,omitempty"`      // 0-100
}

// ActivityRecord mirrors the provider's daily activity resource.
type ActivityRecord struct {
	Date           Date `json:"date"`
	ActivityScore  int  `json:"activity_score"` // 0-100
	Steps          int  `json:"steps"`
	TotalCalories  int  `json:"total_calories"`
	ActiveCalories int  `json:"active_calories"`
	TargetCalories int  `json:"target_calories"`

	TrainingFrequency *int `json:"training_frequency,omitempty"`
	TrainingVolume    *int `json:"training_volume,omitempty"`
	RecoveryTime      *int `json:"recovery_time,omitempty"` // hours
}

// RecommendationType is the canonical recovery recommendation vocabulary.
type RecommendationType string

const (
	TypeRestDay          RecommendationType = "rest_day"
	TypeLightRecovery    RecommendationType = "light_recovery"
	TypeModerateActivity RecommendationType = "moderate_activity"
	TypeTrainingReady    RecommendationType = "training_ready"
	TypePeakPerformance  RecommendationType = "peak_performance"
)

// legacyAliases maps the older coarse vocabulary still emitted by some
// model replies onto the canonical set.
var legacyAliases = map[string]RecommendationType{
	"rest":              TypeRestDay,
	"light_activity":    TypeLightRecovery,
	"moderate_training": TypeModerateActivity,
	"high_intensity":    TypePeakPerformance,
}

// NormalizeRecommendationType maps free text onto the canonical enum.
// Canonical values pass through, legacy aliases are translated, and
// anything unrecognized degrades to moderate_activity.
func NormalizeRecommendationType(s string) RecommendationType {
	v := RecommendationType(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case TypeRestDay, TypeLightRecovery, TypeModerateActivity, TypeTrainingReady, TypePeakPerformance:
		return v
	}
	if canonical, ok := legacyAliases[string(v)]; ok {
		return canonical
	}
	return TypeModerateActivity
}

// Recommendation is the AI-generated (or fallback-synthesized) result of
// the recovery analysis pipeline.
type Recommendation struct {
	Date               Date               `json:"date"`
	RecommendationType RecommendationType `json:"recommendation_type"`
	Message            string             `json:"message"`
	Confidence         float64            `json:"confidence"` // 0.0-1.0
	KeyFactors         []string           `json:"key_factors"`
}
