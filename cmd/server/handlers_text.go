package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/security"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
)

// handleTextAnalyze godoc
// @Summary      Score written text
// @Description  Grammar, readability, structure and coherence, combined into a 0-10 overall score.
// @Tags         text
// @Accept       json
// @Produce      json
// @Param        request  body      security.TextRequest  true  "Text to analyze"
// @Success      200      {object}  text.Analysis
// @Failure      400      {object}  errors.AppError
// @Router       /text/analyze [post]
func (a *App) handleTextAnalyze(c *gin.Context) {
	input := c.GetString(security.SanitizedTextKey)

	start := time.Now()
	res, err := text.Analyze(c.Request.Context(), input, text.Deps{
		Grammar: a.grammar,
		Parser:  a.parser,
		Weights: a.thresholds.TextWeights,
	})
	if err != nil {
		errors.Respond(c, err)
		return
	}

	var nulls []string
	if res.Details.Grammar.Degraded() {
		nulls = append(nulls, text.CategoryGrammar)
		monitoring.ObserveNullScore("text", text.CategoryGrammar, "grammar_unavailable")
	}
	if res.Details.Readability.Score == nil {
		nulls = append(nulls, text.CategoryReadability)
		monitoring.ObserveNullScore("text", text.CategoryReadability, "text_too_short")
	}
	a.metrics.RecordScoreRun("text", nulls...)

	overall := res.Analysis.OverallScore
	monitoring.ObserveScore("text", overall*10)
	a.logger.ScoreLogger("text", &overall, time.Since(start),
		"words", res.Metadata.WordCount,
		"parser_used", res.Metadata.ParserUsed,
		"parse_method", res.Metadata.ParseMethod,
		"degraded", nulls)

	c.JSON(http.StatusOK, res)
}
