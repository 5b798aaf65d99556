package video

import "strings"

const (
	noStrengths = "No notable strengths identified."
	noWeakness  = "No notable weaknesses identified."
	defaultTip  = "Keep up the good work and practice consistently."
	refineTip   = "Continue refining your strong performance with practice."
	maxTips     = 4
)

// Tips keyed by feedback category, in the order they are emitted.
var categoryTips = []struct {
	category string
	tip      string
}{
	{CategoryPosture, "Keep your upper body and hips visible for better posture analysis."},
	{CategoryGestures, "Keep hands in frame and use purposeful, steady gestures."},
	{CategoryExpressions, "Maintain steady eye contact and use smiles sparingly for warmth."},
	{CategoryNervousness, "Relax your face and eyes to reduce nervous movements."},
}

func positive(category, text string) FeedbackTag {
	return FeedbackTag{Category: category, Polarity: PolarityPositive, Severity: SeverityInfo, Text: text}
}

func negative(category, severity, text string) FeedbackTag {
	return FeedbackTag{Category: category, Polarity: PolarityNegative, Severity: severity, Text: text}
}

func tagTexts(tags []FeedbackTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Text
	}
	return out
}

func nullResult(reason, category, message string) ModalityResult {
	return ModalityResult{
		Reason:  reason,
		Message: []string{message},
		Tags:    []FeedbackTag{negative(category, SeverityMajor, message)},
	}
}

// Summarize derives Strengths, Weaknesses and Tips from tagged results.
// Results are read in posture, gestures, expressions order.
func Summarize(results ...ModalityResult) FeedbackSummary {
	var strengths, weaknesses []string
	negCategories := map[string]bool{}
	for _, r := range results {
		for _, tag := range r.Tags {
			switch tag.Polarity {
			case PolarityPositive:
				strengths = append(strengths, tag.Text)
			case PolarityNegative:
				weaknesses = append(weaknesses, tag.Text)
				negCategories[tag.Category] = true
			}
		}
	}

	var tips []string
	for _, ct := range categoryTips {
		if negCategories[ct.category] && len(tips) < maxTips {
			tips = append(tips, ct.tip)
		}
	}
	if len(tips) == 0 && len(strengths) > 0 {
		tips = append(tips, refineTip)
	}
	return FeedbackSummary{Strengths: strengths, Weaknesses: weaknesses, Tips: tips}
}

var (
	positiveKeywords = []string{"great", "nice", "awesome", "natural", "confident"}
	hedgingKeywords  = []string{"try", "often", "seem", "should"}
)

// ClassifyFeedbackText sorts untagged feedback strings by keyword. A string
// with any positive keyword is a strength; otherwise a hedging keyword makes
// it a weakness; strings matching neither are dropped. Tips follow from
// keywords found in the weaknesses.
func ClassifyFeedbackText(feedback []string) FeedbackSummary {
	var strengths, weaknesses []string
	for _, fb := range feedback {
		lower := strings.ToLower(fb)
		switch {
		case containsAny(lower, positiveKeywords):
			strengths = append(strengths, fb)
		case containsAny(lower, hedgingKeywords):
			weaknesses = append(weaknesses, fb)
		}
	}

	matchers := map[string][]string{
		CategoryPosture:     {"posture"},
		CategoryGestures:    {"hands", "gestures"},
		CategoryExpressions: {"expressions", "smile", "eye contact"},
		CategoryNervousness: {"nervous"},
	}
	var tips []string
	for _, ct := range categoryTips {
		for _, w := range weaknesses {
			if containsAny(strings.ToLower(w), matchers[ct.category]) {
				tips = append(tips, ct.tip)
				break
			}
		}
	}
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	if len(tips) == 0 && len(strengths) > 0 {
		tips = append(tips, refineTip)
	}
	return FeedbackSummary{Strengths: strengths, Weaknesses: weaknesses, Tips: tips}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// withDefaults fills empty lists with their fixed placeholders.
func (s FeedbackSummary) withDefaults() FeedbackSummary {
	if len(s.Strengths) == 0 {
		s.Strengths = []string{noStrengths}
	}
	if len(s.Weaknesses) == 0 {
		s.Weaknesses = []string{noWeakness}
	}
	if len(s.Tips) == 0 {
		s.Tips = []string{defaultTip}
	}
	return s
}
