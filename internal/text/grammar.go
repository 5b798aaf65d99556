package text

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	maxReportedErrors = 10
	maxSuggestions    = 3

	MethodLanguageTool = "language_tool_local_server"
	MethodError        = "error"
)

// GrammarMatch is one issue reported by the grammar checker.
type GrammarMatch struct {
	Message      string   `json:"message"`
	Context      string   `json:"context"`
	Offset       int      `json:"offset"`
	Length       int      `json:"length"`
	Category     string   `json:"category"`
	Replacements []string `json:"replacements"`
}

type GrammarError struct {
	Message     string   `json:"message"`
	Context     string   `json:"context"`
	Offset      int      `json:"offset"`
	Length      int      `json:"length"`
	Category    string   `json:"category"`
	Suggestions []string `json:"suggestions"`
}

type GrammarIssues struct {
	AllErrors  []GrammarError `json:"all_errors"`
	ErrorCount int            `json:"error_count"`
}

type GrammarSummary struct {
	QualityRating   string   `json:"quality_rating"`
	OverallFeedback string   `json:"overall_feedback"`
	SpecificIssues  []string `json:"specific_issues"`
	ImprovementTips []string `json:"improvement_tips"`
}

type GrammarResult struct {
	Score          float64        `json:"score"`
	TotalIssues    int            `json:"total_issues"`
	ErrorRatio     float64        `json:"error_ratio"`
	Issues         GrammarIssues  `json:"issues"`
	Summary        GrammarSummary `json:"summary"`
	AnalysisMethod string         `json:"analysis_method"`
}

// Degraded reports whether the checker could not be consulted.
func (g GrammarResult) Degraded() bool { return g.AnalysisMethod == MethodError }

// ScoreGrammar bands the checker's error rate per word into a 0-10 score.
func ScoreGrammar(text string, matches []GrammarMatch) GrammarResult {
	total := len(matches)
	ratio := float64(total) / math.Max(1, float64(len(strings.Fields(text))))

	errs := make([]GrammarError, 0, min(total, maxReportedErrors))
	for _, m := range matches {
		if len(errs) == maxReportedErrors {
			break
		}
		category := m.Category
		if category == "" {
			category = "Unknown"
		}
		sugg := m.Replacements
		if len(sugg) > maxSuggestions {
			sugg = sugg[:maxSuggestions]
		}
		errs = append(errs, GrammarError{
			Message:     m.Message,
			Context:     m.Context,
			Offset:      m.Offset,
			Length:      m.Length,
			Category:    category,
			Suggestions: append([]string{}, sugg...),
		})
	}

	score := grammarScore(total, ratio)
	return GrammarResult{
		Score:       stats.Round(score, 1),
		TotalIssues: total,
		ErrorRatio:  stats.Round(ratio, 3),
		Issues:      GrammarIssues{AllErrors: errs, ErrorCount: total},
		Summary: GrammarSummary{
			QualityRating:   QualityLabel(score),
			OverallFeedback: grammarFeedback(total),
			SpecificIssues:  []string{fmt.Sprintf("%d grammar and spelling issues found", total)},
			ImprovementTips: grammarTips(total),
		},
		AnalysisMethod: MethodLanguageTool,
	}
}

func grammarScore(total int, ratio float64) float64 {
	switch {
	case total == 0:
		return 10
	case ratio <= 0.02:
		return 9.5
	case ratio <= 0.05:
		return 9
	case ratio <= 0.08:
		return 8
	case ratio <= 0.12:
		return 7
	case ratio <= 0.15:
		return 6
	case ratio <= 0.20:
		return 5
	case ratio <= 0.25:
		return 4
	case ratio <= 0.30:
		return 3
	default:
		return math.Max(1, 10-ratio*20)
	}
}

func grammarTips(total int) []string {
	switch {
	case total == 0:
		return []string{"Excellent writing! No grammar or spelling issues found."}
	case total <= 3:
		return []string{"Minor issues found", "A quick proofread would help"}
	case total <= 8:
		return []string{"Some writing issues detected", "Review grammar and spelling rules"}
	case total <= 15:
		return []string{"Multiple writing issues found", "Use grammar checking tools for assistance"}
	default:
		return []string{"Significant writing issues", "Focus on fundamental writing skills"}
	}
}

func grammarFeedback(total int) string {
	switch {
	case total == 0:
		return "Perfect grammar and spelling! Your writing is impeccable."
	case total <= 3:
		return "Minor issues detected. Your writing is strong overall."
	case total <= 8:
		return "Some issues found. A quick review would help."
	case total <= 15:
		return "Several issues need attention."
	default:
		return "Multiple issues require revision for better clarity."
	}
}

// GrammarUnavailable is the degraded result used when the checker fails.
func GrammarUnavailable(err error) GrammarResult {
	return GrammarResult{
		Score:  5.0,
		Issues: GrammarIssues{AllErrors: []GrammarError{}},
		Summary: GrammarSummary{
			QualityRating:   "Analysis Failed",
			OverallFeedback: fmt.Sprintf("Grammar analysis error: %v", err),
			SpecificIssues:  []string{"Analysis unavailable"},
			ImprovementTips: []string{"Please try again or check the server connection"},
		},
		AnalysisMethod: MethodError,
	}
}
