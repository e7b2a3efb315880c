// Package oura integrates with the Oura Ring API v2 to fetch the sleep,
// readiness and activity records the recommendation pipeline runs on.
// API documentation: https://cloud.ouraring.com/v2/docs
package oura

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"recoverycoach/internal/models"
)

const defaultBaseURL = "https://api.ouraring.com/v2/usercollection"

// Client is a bearer-token Oura API v2 client. It is constructed once at
// startup and is safe for concurrent use across requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// ClientOptions configures a Client. Zero values fall back to the
// production endpoint and a 30 second per-call timeout.
type ClientOptions struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
}

// NewClient builds an Oura API client from the given options.
func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      opts.AccessToken,
	}
}

/* =================================================================================
							PROVIDER WIRE SHAPES
=================================================================================*/

// The detailed "sleep" resource carries the duration breakdown; the
// composite score only exists on the "daily_sleep" summary resource.
type detailedSleepEntry struct {
	TotalSleepDuration int  `json:"total_sleep_duration"`
	DeepSleepDuration  int  `json:"deep_sleep_duration"`
	RemSleepDuration   int  `json:"rem_sleep_duration"`
	LightSleepDuration int  `json:"light_sleep_duration"`
	Efficiency         *int `json:"efficiency"`
	RestlessPeriods    *int `json:"restless_periods"`
}

type dailyScoreEntry struct {
	Score int `json:"score"`
}

type readinessEntry struct {
	Score        int `json:"score"`
	Contributors struct {
		BodyTemperature  *float64 `json:"body_temperature"`
		RestingHeartRate *int     `json:"resting_heart_rate"`
		HRVBalance       *int     `json:"hrv_balance"`
		RecoveryIndex    *int     `json:"recovery_index"`
		PreviousNight    *int     `json:"previous_night"`
		SleepBalance     *int     `json:"sleep_balance"`
		ActivityBalance  *int     `json:"activity_balance"`
	} `json:"contributors"`
}

type activityEntry struct {
	Day            string `json:"day"`
	Score          int    `json:"score"`
	Steps          int    `json:"steps"`
	TotalCalories  int    `json:"total_calories"`
	ActiveCalories int    `json:"active_calories"`
	TargetCalories int    `json:"target_calories"`
	RestModeState  *int   `json:"rest_mode_state"`
	Contributors   struct {
		TrainingFrequency *int `json:"training_frequency"`
		TrainingVolume    *int `json:"training_volume"`
	} `json:"contributors"`
}

/* =================================================================================
							REQUEST PLUMBING
=================================================================================*/

// get issues one authenticated request and maps the provider's failure
// modes onto the APIError taxonomy.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &APIError{Kind: KindProvider, Message: "failed to build request: " + err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindProvider, Message: "network error connecting to Oura API: " + err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindProvider, StatusCode: resp.StatusCode, Message: "failed to read response body: " + err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &APIError{Kind: KindAuth, StatusCode: resp.StatusCode, Message: "invalid or expired Oura access token"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &APIError{Kind: KindRateLimited, StatusCode: resp.StatusCode, Message: "rate limit exceeded, try again later"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{Kind: KindProvider, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected provider response: %s", string(body))}
	}

	return body, nil
}

// getList fetches an endpoint and unwraps the {"data": [...]} envelope
// every usercollection resource uses.
func getList[T any](ctx context.Context, c *Client, endpoint string, params url.Values) ([]T, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &APIError{Kind: KindProvider, Message: fmt.Sprintf("malformed %s payload: %v", endpoint, err)}
	}
	return envelope.Data, nil
}

func dayWindow(d models.Date, days int) url.Values {
	return url.Values{
		"start_date": {d.String()},
		"end_date":   {d.AddDays(days).String()},
	}
}

/* =================================================================================
							PER-RESOURCE FETCHERS
=================================================================================*/

// GetSleepData merges the detailed sleep endpoint (duration breakdown)
// with the daily summary endpoint (composite score) into one record.
// The two underlying calls run concurrently.
func (c *Client) GetSleepData(ctx context.Context, day models.Date) (models.SleepRecord, error) {
	params := dayWindow(day, 1)

	var (
		detailed []detailedSleepEntry
		daily    []dailyScoreEntry
	)

	g, grpCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detailed, err = getList[detailedSleepEntry](grpCtx, c, "sleep", params)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = getList[dailyScoreEntry](grpCtx, c, "daily_sleep", params)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.SleepRecord{}, err
	}

	if len(detailed) == 0 || len(daily) == 0 {
		return models.SleepRecord{}, dataUnavailable(day.String())
	}

	record := detailed[0]
	return models.SleepRecord{
		Date:               day,
		TotalSleepDuration: record.TotalSleepDuration,
		DeepSleepDuration:  record.DeepSleepDuration,
		RemSleepDuration:   record.RemSleepDuration,
		LightSleepDuration: record.LightSleepDuration,
		SleepScore:         daily[0].Score,
		Restfulness:        record.RestlessPeriods,
		SleepEfficiency:    record.Efficiency,
	}, nil
}

// GetReadinessData fetches the daily readiness record for the given date.
func (c *Client) GetReadinessData(ctx context.Context, day models.Date) (models.ReadinessRecord, error) {
	params := url.Values{
		"start_date": {day.String()},
		"end_date":   {day.String()},
	}

	entries, err := getList[readinessEntry](ctx, c, "daily_readiness", params)
	if err != nil {
		return models.ReadinessRecord{}, err
	}
	if len(entries) == 0 {
		return models.ReadinessRecord{}, dataUnavailable(day.String())
	}

	record := entries[0]
	return models.ReadinessRecord{
		Date:                 day,
		ReadinessScore:       record.Score,
		TemperatureDeviation: record.Contributors.BodyTemperature,
		RestingHeartRate:     record.Contributors.RestingHeartRate,
		HRVBalance:           record.Contributors.HRVBalance,
		RecoveryIndex:        record.Contributors.RecoveryIndex,
		PreviousNightScore:   record.Contributors.PreviousNight,
		SleepBalance:         record.Contributors.SleepBalance,
		ActivityBalance:      record.Contributors.ActivityBalance,
	}, nil
}

// GetActivityData fetches the daily activity record. The window spans the
// target date through the next day because the provider indexes activity
// by a shifted day boundary; the first returned record is authoritative.
func (c *Client) GetActivityData(ctx context.Context, day models.Date) (models.ActivityRecord, error) {
	entries, err := getList[activityEntry](ctx, c, "daily_activity", dayWindow(day, 1))
	if err != nil {
		return models.ActivityRecord{}, err
	}
	if len(entries) == 0 {
		return models.ActivityRecord{}, dataUnavailable(day.String())
	}

	record := entries[0]
	return models.ActivityRecord{
		Date:              day,
		ActivityScore:     record.Score,
		Steps:             record.Steps,
		TotalCalories:     record.TotalCalories,
		ActiveCalories:    record.ActiveCalories,
		TargetCalories:    record.TargetCalories,
		TrainingFrequency: record.Contributors.TrainingFrequency,
		TrainingVolume:    record.Contributors.TrainingVolume,
		RecoveryTime:      record.RestModeState,
	}, nil
}

// FetchAll retrieves all three records for one date, issuing the three
// per-type fetches concurrently so end-to-end latency is bounded by the
// slowest single fetch. Any failure cancels the rest and fails the whole
// request.
func (c *Client) FetchAll(ctx context.Context, day models.Date) (models.SleepRecord, models.ReadinessRecord, models.ActivityRecord, error) {
	var (
		sleep     models.SleepRecord
		readiness models.ReadinessRecord
		activity  models.ActivityRecord
	)

	g, grpCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sleep, err = c.GetSleepData(grpCtx, day)
		return err
	})
	g.Go(func() error {
		var err error
		readiness, err = c.GetReadinessData(grpCtx, day)
		return err
	})
	g.Go(func() error {
		var err error
		activity, err = c.GetActivityData(grpCtx, day)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.SleepRecord{}, models.ReadinessRecord{}, models.ActivityRecord{}, err
	}
	return sleep, readiness, activity, nil
}

/* =================================================================================
							SUPPLEMENTAL RESOURCES
=================================================================================*/

// GetPersonalInfo returns the raw personal_info resource (age, weight,
// height, biological sex) without reshaping it.
func (c *Client) GetPersonalInfo(ctx context.Context) (map[string]interface{}, error) {
	body, err := c.get(ctx, "personal_info", nil)
	if err != nil {
		return nil, err
	}
	var info map[string]interface{}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &APIError{Kind: KindProvider, Message: "malformed personal_info payload: " + err.Error()}
	}
	return info, nil
}

// ActivityScanEntry summarizes one day found during a window scan.
type ActivityScanEntry struct {
	Date     string `json:"date"`
	Score    int    `json:"score"`
	Steps    int    `json:"steps"`
	Calories int    `json:"calories"`
}

// ActivityScanResult reports which dates in a trailing window actually
// have activity records in the provider.
type ActivityScanResult struct {
	DateRange     string              `json:"date_range"`
	TotalRecords  int                 `json:"total_records"`
	DatesWithData []ActivityScanEntry `json:"dates_with_data"`
}

// ScanActivityWindow checks the trailing N-day window ending at the given
// date and reports every day with an activity record. Useful to diagnose
// the provider's shifted day boundary.
func (c *Client) ScanActivityWindow(ctx context.Context, end models.Date, days int) (ActivityScanResult, error) {
	start := end.AddDays(-days)
	params := url.Values{
		"start_date": {start.String()},
		"end_date":   {end.String()},
	}

	entries, err := getList[activityEntry](ctx, c, "daily_activity", params)
	if err != nil {
		return ActivityScanResult{}, err
	}

	result := ActivityScanResult{
		DateRange:     fmt.Sprintf("%s to %s", start, end),
		TotalRecords:  len(entries),
		DatesWithData: make([]ActivityScanEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		result.DatesWithData = append(result.DatesWithData, ActivityScanEntry{
			Date:     entry.Day,
			Score:    entry.Score,
			Steps:    entry.Steps,
			Calories: entry.TotalCalories,
		})
	}

	log.Info().Int("records", result.TotalRecords).Str("range", result.DateRange).Msg("Completed activity window scan")
	return result, nil
}
