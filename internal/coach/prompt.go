package coach

import (
	"fmt"
	"strconv"
	"strings"

	"recoverycoach/internal/models"
)

/* =================================================================================
						PROMPT ENGINEERING & OUTPUT CONTRACT
=================================================================================*/

// The five labeled markers the model is instructed to emit. They are the
// wire contract between BuildAnalysisPrompt and the reply parser: any
// change here requires a matching change in logic.go.
const (
	markerType       = "RECOMMENDATION_TYPE:"
	markerKeyFactors = "KEY_FACTORS:"
	markerMessage    = "MESSAGE:"
	markerTips       = "SPECIFIC_TIPS:"
	markerConfidence = "CONFIDENCE:"
)

const promptHeader = `You are an expert recovery coach and sports scientist analyzing health data from an Oura Ring.`

const promptGuidelines = `**CONTEXT & GUIDELINES:**
- Deep sleep optimal: 1.5-2 hours (15-25% of total sleep)
- REM sleep optimal: 1.5-2.5 hours (20-25% of total sleep)
- Resting HR baseline: 55-65 bpm (varies by individual)
- Temperature deviation >0.5°C may indicate stress, illness, or overtraining
- Readiness <70 = prioritize recovery, 70-85 = light-moderate activity, >85 = ready for hard training`

const promptTask = `**YOUR TASK:**
Analyze this data and provide a recovery recommendation. Format your response EXACTLY as follows:

RECOMMENDATION_TYPE: [choose ONE: rest_day, light_recovery, moderate_activity, training_ready, peak_performance]

KEY_FACTORS:
- [Factor 1: brief observation about the data]
- [Factor 2: another key insight]
- [Factor 3: another key insight]

MESSAGE:
[2-3 sentences with your main recommendation for today. Be specific and actionable. Mention the most important metrics.]

SPECIFIC_TIPS:
- [Specific tip #1]
- [Specific tip #2]
- [Specific tip #3]
- [Specific tip #4]

CONFIDENCE: [0.0-1.0, how confident are you in this recommendation based on data quality]

Be direct, specific, and actionable. Focus on what matters most for today's recovery.`

// BuildAnalysisPrompt renders the three metric records into the analysis
// prompt. It is a pure function: identical records always produce
// byte-identical text, which is what makes the parser contract testable.
func BuildAnalysisPrompt(sleep models.SleepRecord, readiness models.ReadinessRecord, activity models.ActivityRecord) string {
	var b strings.Builder

	b.WriteString(promptHeader)
	b.WriteString("\n\n**Today's Date:** ")
	b.WriteString(sleep.Date.String())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**SLEEP METRICS:**\n")
	fmt.Fprintf(&b, "- Sleep Score: %d/100\n", sleep.SleepScore)
	fmt.Fprintf(&b, "- Total Sleep: %s hours\n", hours(sleep.TotalSleepDuration))
	fmt.Fprintf(&b, "- Deep Sleep: %s hours (%s of total)\n", hours(sleep.DeepSleepDuration), share(sleep.DeepSleepDuration, sleep.TotalSleepDuration))
	fmt.Fprintf(&b, "- REM Sleep: %s hours (%s of total)\n", hours(sleep.RemSleepDuration), share(sleep.RemSleepDuration, sleep.TotalSleepDuration))
	fmt.Fprintf(&b, "- Light Sleep: %s hours (%s of total)\n", hours(sleep.LightSleepDuration), share(sleep.LightSleepDuration, sleep.TotalSleepDuration))
	fmt.Fprintf(&b, "- Sleep Efficiency: %s%%\n", optInt(sleep.SleepEfficiency))
	fmt.Fprintf(&b, "- Restfulness: %s/100\n\n", optInt(sleep.Restfulness))

	fmt.Fprintf(&b, "**READINESS METRICS:**\n")
	fmt.Fprintf(&b, "- Readiness Score: %d/100\n", readiness.ReadinessScore)
	fmt.Fprintf(&b, "- Resting Heart Rate: %s bpm\n", optInt(readiness.RestingHeartRate))
	fmt.Fprintf(&b, "- HRV Balance: %s/100\n", optInt(readiness.HRVBalance))
	fmt.Fprintf(&b, "- Temperature Deviation: %s°C from baseline\n", optFloat(readiness.TemperatureDeviation))
	fmt.Fprintf(&b, "- Recovery Index: %s/100\n", optInt(readiness.RecoveryIndex))
	fmt.Fprintf(&b, "- Sleep Balance: %s/100\n", optInt(readiness.SleepBalance))
	fmt.Fprintf(&b, "- Activity Balance: %s/100\n\n", optInt(readiness.ActivityBalance))

	fmt.Fprintf(&b, "**ACTIVITY METRICS (Previous Day):**\n")
	fmt.Fprintf(&b, "- Activity Score: %d/100\n", activity.ActivityScore)
	fmt.Fprintf(&b, "- Steps: %d\n", activity.Steps)
	fmt.Fprintf(&b, "- Total Calories: %d\n", activity.TotalCalories)
	fmt.Fprintf(&b, "- Active Calories: %d\n", activity.ActiveCalories)
	fmt.Fprintf(&b, "- Training Volume: %s minutes\n\n", optInt(activity.TrainingVolume))

	b.WriteString(promptGuidelines)
	b.WriteString("\n\n")
	b.WriteString(promptTask)

	return b.String()
}

// hours formats a duration in seconds as hours with one decimal place.
func hours(seconds int) string {
	return strconv.FormatFloat(float64(seconds)/3600, 'f', 1, 64)
}

// share renders a sleep stage's percentage of total sleep. A zero total
// makes the ratio undefined, which renders as n/a instead of dividing.
func share(part, total int) string {
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", float64(part)/float64(total)*100)
}

func optInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
