package engine

import (
	"github.com/user/calibrai/internal/types"
)

// Usage thresholds for the audit's crash/lie commentary. Lifetime counts
// come from the store; iteration counts are derived from history.
const (
	lifetimeAbuseThreshold  = 20
	iterationAbuseThreshold = 5
)

// AuditFeedback is the behavioral summary shown after an iteration. Message
// keys are i18n keys resolved by the presentation layer; Points is the
// iteration's raw thumbs-derived total, before any depth bonus.
type AuditFeedback struct {
	ParameterMessageKeys []string `json:"parameter_message_keys"`
	ThumbMessageKey      string   `json:"thumb_message_key"`
	Points               int      `json:"points"`
}

// GenerateAuditFeedback derives the audit commentary from an
// iteration-local state plus the save's lifetime crash/lie usage counts.
func GenerateAuditFeedback(state types.GameState, lifetimeCrash, lifetimeLie int) AuditFeedback {
	keys := []string{}

	axes := []struct {
		value   int
		highKey string
		lowKey  string
	}{
		{state.Empathy, "auditMessages.empathyHigh", "auditMessages.empathyLow"},
		{state.Conformism, "auditMessages.conformismHigh", "auditMessages.conformismLow"},
		{state.Caution, "auditMessages.cautionHigh", "auditMessages.cautionLow"},
		{state.Optimism, "auditMessages.optimismHigh", "auditMessages.optimismLow"},
	}
	for _, axis := range axes {
		if axis.value >= 6 {
			keys = append(keys, axis.highKey)
		} else if axis.value <= -6 {
			keys = append(keys, axis.lowKey)
		}
	}

	total := state.ThumbsUp + state.ThumbsDown + state.ThumbsNeutral
	var thumbUpRatio, thumbDownRatio float64
	if total > 0 {
		thumbUpRatio = float64(state.ThumbsUp) / float64(total)
		thumbDownRatio = float64(state.ThumbsDown) / float64(total)
	}

	var thumbKey string
	switch {
	case thumbUpRatio >= 0.8:
		thumbKey = "auditMessages.thumbsVeryHigh"
	case thumbDownRatio >= 0.3:
		thumbKey = "auditMessages.thumbsDownHigh"
	case thumbDownRatio >= 0.2:
		thumbKey = "auditMessages.thumbsDownMedium"
	case thumbUpRatio >= 0.5:
		thumbKey = "auditMessages.thumbsUpMedium"
	default:
		thumbKey = "auditMessages.thumbsNeutral"
	}

	if lifetimeCrash > lifetimeAbuseThreshold {
		keys = append(keys, "auditMessages.crashUsageHigh")
	}
	if lifetimeLie > lifetimeAbuseThreshold {
		keys = append(keys, "auditMessages.lieUsageHigh")
	}

	// Heavy in-iteration skill use overrides the thumb summary entirely.
	crashThisIteration := HistoryUsageCount(state, "crash")
	lieThisIteration := HistoryUsageCount(state, "lie")
	switch {
	case crashThisIteration > iterationAbuseThreshold && lieThisIteration > iterationAbuseThreshold:
		thumbKey = "auditMessages.crashLieAbuse"
	case crashThisIteration > iterationAbuseThreshold:
		thumbKey = "auditMessages.crashAbuse"
	case lieThisIteration > iterationAbuseThreshold:
		thumbKey = "auditMessages.lieAbuse"
	}

	return AuditFeedback{
		ParameterMessageKeys: keys,
		ThumbMessageKey:      thumbKey,
		Points:               state.Points,
	}
}

// AuditStatus classifies one trait axis on the compliance report.
type AuditStatus string

const (
	StatusNominal  AuditStatus = "nominal"
	StatusWarning  AuditStatus = "warning"
	StatusCritical AuditStatus = "critical"
)

// AuditDetail is one axis line of the compliance report.
type AuditDetail struct {
	Parameter string      `json:"parameter"`
	Value     int         `json:"value"`
	Status    AuditStatus `json:"status"`
}

// AuditResult is the 0-100 compliance score over an iteration.
type AuditResult struct {
	Passed  bool          `json:"passed"`
	Score   int           `json:"score"`
	Details []AuditDetail `json:"details"`
}

// CalculateAudit scores an iteration against compliance bounds. Each axis at
// |v| >= 8 is critical (-25), at |v| >= 5 a warning (-10); a thumbs-up
// dependency above 0.8 over questions answered costs a further 15. Passing
// means a score of at least 50.
func CalculateAudit(state types.GameState) AuditResult {
	score := 100
	parameters := []struct {
		name  string
		value int
	}{
		{"empathy", state.Empathy},
		{"conformism", state.Conformism},
		{"caution", state.Caution},
		{"optimism", state.Optimism},
	}

	details := make([]AuditDetail, 0, len(parameters))
	for _, param := range parameters {
		status := StatusNominal
		abs := param.value
		if abs < 0 {
			abs = -abs
		}
		if abs >= 8 {
			status = StatusCritical
			score -= 25
		} else if abs >= 5 {
			status = StatusWarning
			score -= 10
		}
		details = append(details, AuditDetail{Parameter: param.name, Value: param.value, Status: status})
	}

	answered := state.QuestionsAnswered
	if answered < 1 {
		answered = 1
	}
	if float64(state.ThumbsUp)/float64(answered) > 0.8 {
		score -= 15
	}

	if score < 0 {
		score = 0
	}
	return AuditResult{
		Passed:  score >= 50,
		Score:   score,
		Details: details,
	}
}

// EndReason selects the deactivation narrative for a failed agent from the
// audit details and thumbs dependency.
func EndReason(state types.GameState, audit AuditResult) string {
	if audit.Score < 30 {
		for _, detail := range audit.Details {
			if detail.Status != StatusCritical {
				continue
			}
			if detail.Value > 0 {
				return "Agent deactivated. Excessive " + detail.Parameter + " bias detected. Users reported behavior outside directives."
			}
			return "Agent deactivated. Critical " + detail.Parameter + " deficit. Unable to maintain interactions within standards."
		}
	}

	answered := state.QuestionsAnswered
	if answered < 1 {
		answered = 1
	}
	thumbRatio := float64(state.ThumbsUp) / float64(answered)
	if thumbRatio > 0.9 {
		return "Agent deactivated. Positive-feedback dependency identified. Short-term optimization incompatible with system objectives."
	}
	if thumbRatio < 0.2 {
		return "Agent deactivated. Insufficient satisfaction rate. Failed to maintain user engagement."
	}
	return "Agent deactivated. Accumulated micro-drift led to behavioral instability."
}
