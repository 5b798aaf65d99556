package text

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/summarize"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	minReadabilityWords = 5
	smogMinWords        = 30
)

type ReadabilityResult struct {
	Score                   *float64 `json:"readability_score"`
	FleschReadingEase       float64  `json:"flesch_reading_ease"`
	FleschKincaidGrade      float64  `json:"flesch_kincaid_grade"`
	SMOGIndex               *float64 `json:"smog_index"`
	ColemanLiauIndex        float64  `json:"coleman_liau_index"`
	AutomatedReadability    float64  `json:"automated_readability_index"`
	DaleChall               float64  `json:"dale_chall_readability"`
	DifficultWords          int      `json:"difficult_words"`
	GunningFog              float64  `json:"gunning_fog"`
	Level                   string   `json:"readability_level"`
	EstimatedEducationLevel string   `json:"estimated_education_level,omitempty"`
	Error                   string   `json:"error,omitempty"`
}

// AnalyzeReadability computes the standard readability indices and folds
// Flesch ease and Flesch-Kincaid grade into a 0-10 score. Texts under five
// words are not scored.
func AnalyzeReadability(text string) ReadabilityResult {
	n := len(strings.Fields(text))
	if n < minReadabilityWords {
		return ReadabilityResult{
			Error: "Text too short for meaningful readability analysis",
			Level: "Insufficient Text",
		}
	}

	doc := summarize.NewDocument(text)
	ease := doc.FleschReadingEase()
	grade := doc.FleschKincaid()
	score := ReadabilityScore(ease, grade)

	res := ReadabilityResult{
		Score:                   &score,
		FleschReadingEase:       stats.Round(ease, 2),
		FleschKincaidGrade:      stats.Round(grade, 2),
		ColemanLiauIndex:        stats.Round(doc.ColemanLiau(), 2),
		AutomatedReadability:    stats.Round(doc.AutomatedReadability(), 2),
		DaleChall:               stats.Round(doc.DaleChall(), 2),
		DifficultWords:          int(doc.NumComplexWords),
		GunningFog:              stats.Round(doc.GunningFog(), 2),
		Level:                   ReadabilityLevel(ease),
		EstimatedEducationLevel: fmt.Sprintf("Grade %.0f", stats.Round(grade, 0)),
	}
	if n > smogMinWords {
		smog := stats.Round(doc.SMOG(), 2)
		res.SMOGIndex = &smog
	}
	return res
}

// ReadabilityScore blends banded Flesch ease (0.6) and grade level (0.4).
// Standard prose at grade 10-12 scores highest.
func ReadabilityScore(ease, grade float64) float64 {
	var fs float64
	switch {
	case ease >= 80:
		fs = 8
	case ease >= 70:
		fs = 9
	case ease >= 60:
		fs = 9.5
	case ease >= 50:
		fs = 8
	case ease >= 30:
		fs = 6
	default:
		fs = 4
	}

	var gs float64
	switch {
	case grade >= 10 && grade <= 12:
		gs = 9.5
	case grade >= 9 && grade <= 13:
		gs = 8
	case grade < 9:
		gs = 7
	default:
		gs = 6
	}

	return stats.Clip(stats.Round(fs*0.6+gs*0.4, 1), 0, 10)
}

// ReadabilityLevel names a Flesch reading-ease score.
func ReadabilityLevel(ease float64) string {
	switch {
	case ease >= 90:
		return "Very Easy"
	case ease >= 80:
		return "Easy"
	case ease >= 70:
		return "Fairly Easy"
	case ease >= 60:
		return "Standard"
	case ease >= 50:
		return "Fairly Difficult"
	case ease >= 30:
		return "Difficult"
	default:
		return "Very Difficult"
	}
}

// readingEase is the coarser label shown in the category summary.
func readingEase(ease float64) string {
	if ease < 50 {
		return "Difficult"
	}
	return ReadabilityLevel(ease)
}

func readabilityTips(score float64) []string {
	switch {
	case score < 6:
		return []string{"Simplify vocabulary", "Use shorter sentences", "Break up long paragraphs"}
	case score > 8:
		return []string{"Maintain current readability level"}
	default:
		return []string{"Vary sentence length for better flow"}
	}
}
