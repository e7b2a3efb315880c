package coach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"recoverycoach/internal/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testRecords(t *testing.T) (models.SleepRecord, models.ReadinessRecord, models.ActivityRecord) {
	t.Helper()
	day, err := models.ParseDate("2024-01-15")
	require.NoError(t, err)

	sleep := models.SleepRecord{
		Date:               day,
		TotalSleepDuration: 27000, // 7.5h
		DeepSleepDuration:  5400,  // 1.5h
		RemSleepDuration:   6300,
		LightSleepDuration: 15300,
		SleepScore:         82,
		Restfulness:        intPtr(88),
		SleepEfficiency:    intPtr(93),
	}
	readiness := models.ReadinessRecord{
		Date:                 day,
		ReadinessScore:       76,
		TemperatureDeviation: floatPtr(0.2),
		RestingHeartRate:     intPtr(58),
		HRVBalance:           intPtr(71),
		RecoveryIndex:        intPtr(80),
		SleepBalance:         intPtr(84),
		ActivityBalance:      intPtr(77),
	}
	activity := models.ActivityRecord{
		Date:           day,
		ActivityScore:  68,
		Steps:          9200,
		TotalCalories:  2600,
		ActiveCalories: 450,
		TargetCalories: 500,
		TrainingVolume: intPtr(95),
	}
	return sleep, readiness, activity
}

func TestBuildAnalysisPromptDeterministic(t *testing.T) {
	sleep, readiness, activity := testRecords(t)

	first := BuildAnalysisPrompt(sleep, readiness, activity)
	second := BuildAnalysisPrompt(sleep, readiness, activity)
	require.Equal(t, first, second, "identical records must yield byte-identical prompts")
}

func TestBuildAnalysisPromptContent(t *testing.T) {
	sleep, readiness, activity := testRecords(t)

	prompt := BuildAnalysisPrompt(sleep, readiness, activity)

	require.Contains(t, prompt, "**Today's Date:** 2024-01-15")
	require.Contains(t, prompt, "- Sleep Score: 82/100")
	require.Contains(t, prompt, "- Total Sleep: 7.5 hours")
	require.Contains(t, prompt, "- Deep Sleep: 1.5 hours (20% of total)")
	require.Contains(t, prompt, "- Resting Heart Rate: 58 bpm")
	require.Contains(t, prompt, "- Steps: 9200")

	// The output contract markers must appear in order.
	order := []string{markerType, markerKeyFactors, markerMessage, markerTips, markerConfidence}
	last := -1
	for _, marker := range order {
		idx := strings.Index(prompt, marker)
		require.Greater(t, idx, last, "marker %q out of order", marker)
		last = idx
	}
}

func TestBuildAnalysisPromptZeroTotalSleep(t *testing.T) {
	sleep, readiness, activity := testRecords(t)
	sleep.TotalSleepDuration = 0
	sleep.DeepSleepDuration = 0
	sleep.RemSleepDuration = 0
	sleep.LightSleepDuration = 0

	prompt := BuildAnalysisPrompt(sleep, readiness, activity)

	require.Contains(t, prompt, "- Total Sleep: 0.0 hours")
	require.Contains(t, prompt, "- Deep Sleep: 0.0 hours (n/a of total)")
	require.NotContains(t, prompt, "NaN")
}

func TestBuildAnalysisPromptMissingOptionals(t *testing.T) {
	sleep, readiness, activity := testRecords(t)
	sleep.SleepEfficiency = nil
	sleep.Restfulness = nil
	readiness.TemperatureDeviation = nil
	readiness.RestingHeartRate = nil
	activity.TrainingVolume = nil

	prompt := BuildAnalysisPrompt(sleep, readiness, activity)

	require.Contains(t, prompt, "- Sleep Efficiency: n/a%")
	require.Contains(t, prompt, "- Restfulness: n/a/100")
	require.Contains(t, prompt, "- Temperature Deviation: n/a°C from baseline")
	require.Contains(t, prompt, "- Resting Heart Rate: n/a bpm")
	require.Contains(t, prompt, "- Training Volume: n/a minutes")
}
