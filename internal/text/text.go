// Package text scores written text on grammar, readability, sentence
// structure and coherence, and aggregates the four into an overall score.
package text

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

// Category keys of the overall score.
const (
	CategoryGrammar     = "grammar"
	CategoryReadability = "readability"
	CategoryStructure   = "structure"
	CategoryCoherence   = "coherence"

	improvementThreshold = 7.0
)

// categoryOrder fixes iteration order for weighting and improvement areas.
var categoryOrder = []string{CategoryGrammar, CategoryReadability, CategoryStructure, CategoryCoherence}

// Deps are the collaborators used by Analyze. Either may be nil: grammar
// then degrades to 5.0, structure and coherence fall back to heuristics.
type Deps struct {
	Grammar GrammarChecker
	Parser  Parser
	Weights config.TextWeights
}

type GrammarCategory struct {
	Score           float64       `json:"score"`
	Level           string        `json:"level"`
	TotalErrors     int           `json:"total_errors"`
	DetailedErrors  GrammarIssues `json:"detailed_errors"`
	Weaknesses      []string      `json:"weaknesses"`
	ImprovementTips []string      `json:"improvement_tips"`
	QualityFeedback string        `json:"quality_feedback"`
}

type ReadabilityDetails struct {
	Level          string `json:"level"`
	TargetAudience string `json:"target_audience"`
	ReadingEase    string `json:"reading_ease"`
}

type ReadabilityCategory struct {
	Score           *float64           `json:"score"`
	Level           string             `json:"level"`
	Details         ReadabilityDetails `json:"details"`
	ImprovementTips []string           `json:"improvement_tips"`
}

type StructureDetails struct {
	SentenceVariety   string  `json:"sentence_variety"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	WordCount         int     `json:"word_count"`
}

type StructureCategory struct {
	Score           float64          `json:"score"`
	Level           string           `json:"level"`
	Details         StructureDetails `json:"details"`
	ImprovementTips []string         `json:"improvement_tips"`
}

type CoherenceDetails struct {
	Fluency         string `json:"fluency"`
	TransitionWords int    `json:"transition_words"`
}

type CoherenceCategory struct {
	Score           float64          `json:"score"`
	Level           string           `json:"level"`
	Details         CoherenceDetails `json:"details"`
	Weaknesses      []string         `json:"weaknesses"`
	ImprovementTips []string         `json:"improvement_tips"`
}

type Categories struct {
	GrammarSpelling GrammarCategory     `json:"grammar_spelling"`
	Readability     ReadabilityCategory `json:"readability"`
	Structure       StructureCategory   `json:"structure"`
	Coherence       CoherenceCategory   `json:"coherence"`
}

type Summary struct {
	OverallScore float64    `json:"overall_score"`
	QualityLabel string     `json:"quality_label"`
	Categories   Categories `json:"categories"`
}

type Metadata struct {
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	WordCount             int     `json:"word_count"`
	SentenceCount         int     `json:"sentence_count"`
	TextLength            int     `json:"text_length"`
	ParserUsed            bool    `json:"parser_used"`
	ParseMethod           string  `json:"parse_method"`
}

type Details struct {
	Grammar     GrammarResult     `json:"grammar"`
	Readability ReadabilityResult `json:"readability"`
	Structure   StructureResult   `json:"structure"`
	Coherence   CoherenceResult   `json:"coherence"`
}

// Analysis is the full text report.
type Analysis struct {
	Success             bool     `json:"success"`
	Analysis            Summary  `json:"analysis"`
	Suggestions         []string `json:"suggestions"`
	KeyImprovementAreas []string `json:"key_improvement_areas"`
	Metadata            Metadata `json:"metadata"`
	Details             Details  `json:"detailed_analysis"`
}

// Analyze runs the four text scorers and aggregates them. Collaborator
// failures degrade individual categories; only empty input is an error.
func Analyze(ctx context.Context, input string, deps Deps) (Analysis, error) {
	start := time.Now()
	txt := strings.TrimSpace(input)
	if txt == "" {
		return Analysis{}, errors.NewValidationError("Text is required")
	}

	var grammar GrammarResult
	if deps.Grammar == nil {
		grammar = GrammarUnavailable(fmt.Errorf("grammar checker not configured"))
	} else if matches, err := deps.Grammar.Check(ctx, txt); err != nil {
		grammar = GrammarUnavailable(err)
	} else {
		grammar = ScoreGrammar(txt, matches)
	}

	parse, remote := parseText(ctx, txt, deps.Parser)

	d := Details{
		Grammar:     grammar,
		Readability: AnalyzeReadability(txt),
		Structure:   AnalyzeStructure(txt, parse),
		Coherence:   AnalyzeCoherence(txt, parse),
	}

	weights := deps.Weights
	if weights == (config.TextWeights{}) {
		weights = config.DefaultThresholds().TextWeights
	}
	scores := d.scores()
	overall := CalculateOverallScore(scores, weights)

	var wordCount, sentenceCount int
	if b := d.Structure.Basic; b != nil {
		wordCount, sentenceCount = b.WordCount, b.SentenceCount
	}

	return Analysis{
		Success: true,
		Analysis: Summary{
			OverallScore: overall,
			QualityLabel: QualityLabel(overall),
			Categories:   d.categories(),
		},
		Suggestions:         Suggestions(scores, overall),
		KeyImprovementAreas: ImprovementAreas(scores),
		Metadata: Metadata{
			ProcessingTimeSeconds: stats.Round(time.Since(start).Seconds(), 2),
			WordCount:             wordCount,
			SentenceCount:         sentenceCount,
			TextLength:            len([]rune(txt)),
			ParserUsed:            remote,
			ParseMethod:           parseMethod(parse),
		},
		Details: d,
	}, nil
}

// parseText asks the NLP service first and falls back to the local tagger.
// remote reports whether the service's parse was used.
func parseText(ctx context.Context, txt string, service Parser) (parse *Parse, remote bool) {
	if service != nil {
		if p, err := service.Parse(ctx, txt); err == nil && p != nil && len(p.Sentences) > 0 {
			return p, true
		}
	}
	if p, err := LocalParser().Parse(ctx, txt); err == nil && len(p.Sentences) > 0 {
		return p, false
	}
	return nil, false
}

func parseMethod(p *Parse) string {
	if p == nil {
		return "none"
	}
	return p.method()
}

// scores collects the category scores that were actually produced.
func (d Details) scores() map[string]float64 {
	s := map[string]float64{
		CategoryGrammar:   d.Grammar.Score,
		CategoryStructure: d.Structure.Score,
		CategoryCoherence: d.Coherence.Score,
	}
	if d.Readability.Score != nil {
		s[CategoryReadability] = *d.Readability.Score
	}
	return s
}

func (d Details) categories() Categories {
	g := d.Grammar
	r := d.Readability
	st := d.Structure
	co := d.Coherence

	readLevel := "Poor"
	readTips := readabilityTips(0)
	if r.Score != nil {
		readLevel = QualityLabel(*r.Score)
		readTips = readabilityTips(*r.Score)
	}
	audience := r.EstimatedEducationLevel
	if audience == "" {
		audience = "Unknown"
	}

	var structDetails StructureDetails
	if b := st.Basic; b != nil {
		structDetails.AvgSentenceLength = b.AvgSentenceLength
		structDetails.WordCount = b.WordCount
	}
	structDetails.SentenceVariety = "Could be improved"
	if structDetails.AvgSentenceLength >= 5 && structDetails.AvgSentenceLength <= 25 {
		structDetails.SentenceVariety = "Good"
	}

	cohWeak := []string{}
	if co.Score < improvementThreshold {
		cohWeak = []string{"Text flow", "Transition usage"}
	}

	return Categories{
		GrammarSpelling: GrammarCategory{
			Score:           g.Score,
			Level:           QualityLabel(g.Score),
			TotalErrors:     g.TotalIssues,
			DetailedErrors:  g.Issues,
			Weaknesses:      g.Summary.SpecificIssues,
			ImprovementTips: g.Summary.ImprovementTips,
			QualityFeedback: g.Summary.OverallFeedback,
		},
		Readability: ReadabilityCategory{
			Score: r.Score,
			Level: readLevel,
			Details: ReadabilityDetails{
				Level:          r.Level,
				TargetAudience: audience,
				ReadingEase:    readingEase(r.FleschReadingEase),
			},
			ImprovementTips: readTips,
		},
		Structure: StructureCategory{
			Score:           st.Score,
			Level:           QualityLabel(st.Score),
			Details:         structDetails,
			ImprovementTips: structureTips(st.Basic),
		},
		Coherence: CoherenceCategory{
			Score: co.Score,
			Level: QualityLabel(co.Score),
			Details: CoherenceDetails{
				Fluency:         co.FluencyRating,
				TransitionWords: co.TotalTransitions(),
			},
			Weaknesses:      cohWeak,
			ImprovementTips: []string{co.Feedback},
		},
	}
}

// CalculateOverallScore is the weighted mean of the present category
// scores, renormalized over their weights and rounded to one decimal.
func CalculateOverallScore(scores map[string]float64, w config.TextWeights) float64 {
	weights := map[string]float64{
		CategoryGrammar:     w.Grammar,
		CategoryReadability: w.Readability,
		CategoryCoherence:   w.Coherence,
		CategoryStructure:   w.Structure,
	}
	var sum, total float64
	for _, c := range categoryOrder {
		s, ok := scores[c]
		if !ok {
			continue
		}
		sum += s * weights[c]
		total += weights[c]
	}
	if total == 0 {
		return 0
	}
	return stats.Round(sum/total, 1)
}

// ImprovementAreas lists, capitalized, every category scoring under 7.
func ImprovementAreas(scores map[string]float64) []string {
	out := []string{}
	for _, c := range categoryOrder {
		if s, ok := scores[c]; ok && s < improvementThreshold {
			out = append(out, strings.ToUpper(c[:1])+c[1:])
		}
	}
	return out
}

// Suggestions opens with a banded overall verdict and adds one line per
// weak category.
func Suggestions(scores map[string]float64, overall float64) []string {
	var out []string
	switch {
	case overall >= 9:
		out = append(out, "🎉 **Excellent Writing**: Your text demonstrates strong writing skills across all categories!")
	case overall >= 8:
		out = append(out, "✅ **Very Good**: Your writing is strong with only minor areas for improvement.")
	case overall >= 7:
		out = append(out, "👍 **Good Foundation**: Solid writing with some opportunities for enhancement.")
	case overall >= 6:
		out = append(out, "📝 **Needs Attention**: Several areas need improvement for better clarity.")
	default:
		out = append(out, "🔄 **Significant Improvement Needed**: Focus on fundamental writing skills.")
	}

	below := func(c string, limit float64) bool {
		s, ok := scores[c]
		return ok && s < limit
	}
	if below(CategoryGrammar, 7) {
		out = append(out, "📚 **Grammar & Spelling**: Review grammar rules and proofread carefully.")
	}
	if below(CategoryReadability, 6) {
		out = append(out, "📖 **Readability**: Simplify language and improve sentence flow.")
	}
	if below(CategoryCoherence, 6) {
		out = append(out, "🔗 **Coherence**: Use transition words and improve logical flow.")
	}
	if below(CategoryStructure, 6) {
		out = append(out, "📐 **Structure**: Vary sentence length and structure.")
	}
	return out
}

// QualityLabel names a 0-10 score.
func QualityLabel(score float64) string {
	switch {
	case score >= 9:
		return "Excellent"
	case score >= 8:
		return "Very Good"
	case score >= 7:
		return "Good"
	case score >= 6:
		return "Fair"
	case score >= 5:
		return "Needs Improvement"
	default:
		return "Poor"
	}
}
