// Package coach implements the recommendation synthesis pipeline: it
// renders the three Oura records into an analysis prompt, invokes the
// generative text service, and deterministically parses the templated
// reply into a structured recommendation with a rule-based fallback.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"recoverycoach/internal/models"
)

const (
	maxResponseTokens = 1024
	maxKeyFactors     = 5

	// Confidence when the field is missing or unparseable in the reply.
	defaultConfidence = 0.8
	// Confidence assigned to every fallback-synthesized recommendation.
	fallbackConfidence = 0.7

	// Raw-reply prefix length used as the fallback message.
	fallbackMessageLimit = 500

	apologyMessage = "We could not generate a personalized recommendation right now. " +
		"Based on your readiness score, here is a conservative suggestion for today."
)

// Coach orchestrates the prompt-compose, generate and parse steps.
type Coach struct {
	generative *GenerativeClient
}

func NewCoach(generative *GenerativeClient) *Coach {
	return &Coach{generative: generative}
}

// AnalyzeRecovery runs the full pipeline for one day's records. A failed
// generative call degrades to the rule-based fallback; only a
// non-recoverable *CoachError (credential failure) propagates.
func (co *Coach) AnalyzeRecovery(ctx context.Context, sleep models.SleepRecord, readiness models.ReadinessRecord, activity models.ActivityRecord) (models.Recommendation, error) {
	prompt := BuildAnalysisPrompt(sleep, readiness, activity)

	raw, err := co.generative.Complete(ctx, prompt, maxResponseTokens)
	if err != nil {
		var coachErr *CoachError
		if errors.As(err, &coachErr) {
			return models.Recommendation{}, err
		}
		log.Warn().Err(err).Msg("Generative call failed, using rule-based fallback recommendation")
		return fallbackRecommendation(apologyMessage, sleep, readiness, activity), nil
	}

	return parseResponse(raw, sleep, readiness, activity), nil
}

/* =================================================================================
							REPLY PARSING
=================================================================================*/

// parseState tracks which bulleted section the line scanner is inside.
type parseState int

const (
	stateScanning parseState = iota
	stateKeyFactors
	stateTips
)

type parsedReply struct {
	recType    string
	factors    []string
	tips       []string
	message    string
	confidence *float64
	sawMarker  bool
}

// extractFields walks the reply line by line collecting the five labeled
// sections. Bulleted sections collect dash lines and stop at the first
// non-blank, non-dash line after collection began.
func extractFields(raw string) parsedReply {
	var reply parsedReply

	state := stateScanning
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.Contains(line, markerType):
			reply.sawMarker = true
			idx := strings.Index(line, markerType)
			reply.recType = strings.TrimSpace(line[idx+len(markerType):])
			state = stateScanning

		case strings.Contains(line, markerKeyFactors):
			reply.sawMarker = true
			state = stateKeyFactors

		case strings.Contains(line, markerTips):
			reply.sawMarker = true
			state = stateTips

		case strings.Contains(line, markerConfidence):
			reply.sawMarker = true
			idx := strings.Index(line, markerConfidence)
			value := strings.TrimSpace(line[idx+len(markerConfidence):])
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				reply.confidence = &parsed
			}
			state = stateScanning

		case strings.Contains(line, markerMessage):
			reply.sawMarker = true
			state = stateScanning

		default:
			switch state {
			case stateKeyFactors:
				if strings.HasPrefix(trimmed, "-") {
					reply.factors = append(reply.factors, strings.TrimSpace(strings.TrimPrefix(trimmed, "-")))
				} else if trimmed != "" {
					state = stateScanning
				}
			case stateTips:
				if strings.HasPrefix(trimmed, "-") {
					reply.tips = append(reply.tips, strings.TrimSpace(strings.TrimPrefix(trimmed, "-")))
				} else if trimmed != "" {
					state = stateScanning
				}
			}
		}
	}

	// The free-text message is the raw substring between MESSAGE: and
	// whichever of SPECIFIC_TIPS:/CONFIDENCE: appears next.
	if idx := strings.Index(raw, markerMessage); idx >= 0 {
		start := idx + len(markerMessage)
		end := len(raw)
		if j := strings.Index(raw[start:], markerTips); j >= 0 {
			end = start + j
		} else if j := strings.Index(raw[start:], markerConfidence); j >= 0 {
			end = start + j
		}
		reply.message = strings.TrimSpace(raw[start:end])
	}

	return reply
}

// parseResponse turns the raw reply into a Recommendation. It never
// fails: a reply with none of the expected markers degrades to the
// rule-based fallback built from the source records.
func parseResponse(raw string, sleep models.SleepRecord, readiness models.ReadinessRecord, activity models.ActivityRecord) models.Recommendation {
	fields := extractFields(raw)
	if !fields.sawMarker {
		return fallbackRecommendation(truncate(raw, fallbackMessageLimit), sleep, readiness, activity)
	}

	recType := models.NormalizeRecommendationType(fields.recType)

	confidence := defaultConfidence
	if fields.confidence != nil {
		confidence = *fields.confidence
	}

	factors := fields.factors
	if len(factors) == 0 {
		factors = synthesizeKeyFactors(sleep, readiness, activity)
	}
	if len(factors) > maxKeyFactors {
		factors = factors[:maxKeyFactors]
	}

	message := fields.message
	if len(fields.tips) > 0 {
		var b strings.Builder
		b.WriteString(message)
		b.WriteString("\n\nSpecific Tips:\n")
		for i, tip := range fields.tips {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("• " + tip)
		}
		message = b.String()
	}

	return models.Recommendation{
		Date:               sleep.Date,
		RecommendationType: recType,
		Message:            message,
		Confidence:         confidence,
		KeyFactors:         factors,
	}
}

/* =================================================================================
							RULE-BASED FALLBACK
=================================================================================*/

// fallbackRecommendation builds a well-typed result when the reply was
// unusable or the generative call failed recoverably.
func fallbackRecommendation(message string, sleep models.SleepRecord, readiness models.ReadinessRecord, activity models.ActivityRecord) models.Recommendation {
	return models.Recommendation{
		Date:               sleep.Date,
		RecommendationType: typeForReadiness(readiness.ReadinessScore),
		Message:            message,
		Confidence:         fallbackConfidence,
		KeyFactors:         synthesizeKeyFactors(sleep, readiness, activity),
	}
}

// typeForReadiness is the readiness-score lookup table used by the
// fallback path.
func typeForReadiness(score int) models.RecommendationType {
	switch {
	case score >= 85:
		return models.TypePeakPerformance
	case score >= 70:
		return models.TypeTrainingReady
	case score >= 55:
		return models.TypeModerateActivity
	case score >= 40:
		return models.TypeLightRecovery
	default:
		return models.TypeRestDay
	}
}

// synthesizeKeyFactors derives up to five factors from the source records
// using a fixed rule order, so the output is fully deterministic.
func synthesizeKeyFactors(sleep models.SleepRecord, readiness models.ReadinessRecord, activity models.ActivityRecord) []string {
	var factors []string

	switch {
	case sleep.SleepScore >= 85:
		factors = append(factors, fmt.Sprintf("excellent sleep quality (%d/100)", sleep.SleepScore))
	case sleep.SleepScore < 70:
		factors = append(factors, fmt.Sprintf("poor sleep quality (%d/100)", sleep.SleepScore))
	}

	switch {
	case readiness.ReadinessScore >= 85:
		factors = append(factors, fmt.Sprintf("high readiness (%d/100)", readiness.ReadinessScore))
	case readiness.ReadinessScore < 70:
		factors = append(factors, fmt.Sprintf("low readiness (%d/100)", readiness.ReadinessScore))
	}

	if dev := readiness.TemperatureDeviation; dev != nil && (*dev > 0.5 || *dev < -0.5) {
		factors = append(factors, fmt.Sprintf("elevated temperature deviation (%.1f°C)", *dev))
	}

	if hrv := readiness.HRVBalance; hrv != nil && *hrv < 60 {
		factors = append(factors, fmt.Sprintf("low HRV balance (%d/100)", *hrv))
	}

	if activity.Steps < 5000 {
		factors = append(factors, fmt.Sprintf("low activity (%d steps)", activity.Steps))
	}

	if len(factors) > maxKeyFactors {
		factors = factors[:maxKeyFactors]
	}
	return factors
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
