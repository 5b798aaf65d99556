package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/speech"
)

// handleSpeechScore godoc
// @Summary      Score a transcribed recording
// @Tags         speech
// @Accept       json
// @Produce      json
// @Param        request  body      speech.Input  true  "Transcription, audio chunk features and prompt match ratio"
// @Success      200      {object}  speech.Report
// @Failure      400      {object}  errors.AppError
// @Router       /speech/score [post]
func (a *App) handleSpeechScore(c *gin.Context) {
	var in speech.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		errors.Respond(c, errors.NewValidationError("invalid JSON format", err.Error()))
		return
	}
	if in.PromptMatchRatio < 0 || in.PromptMatchRatio > 1 {
		errors.Respond(c, errors.NewValidationError("prompt_match_ratio must be between 0 and 1"))
		return
	}

	c.JSON(http.StatusOK, a.scoreSpeech(in))
}

// handleSpeechAnalyze godoc
// @Summary      Score an uploaded recording
// @Description  Extracts audio features and a transcript from the upload, then runs every speech scorer.
// @Tags         speech
// @Accept       multipart/form-data
// @Produce      json
// @Param        audio               formData  file    true   "Audio file"
// @Param        prompt_match_ratio  formData  number  false  "Share of the prompt covered, 0 to 1"
// @Success      200                 {object}  speech.Report
// @Failure      400                 {object}  errors.AppError
// @Failure      502                 {object}  errors.AppError
// @Router       /speech/analyze [post]
func (a *App) handleSpeechAnalyze(c *gin.Context) {
	ratio, err := formRatio(c, "prompt_match_ratio")
	if err != nil {
		errors.Respond(c, err)
		return
	}

	in, err := a.speechInputFromUpload(c)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	in.PromptMatchRatio = ratio

	c.JSON(http.StatusOK, a.scoreSpeech(in))
}

// handleEvaluateFeature godoc
// @Summary      Pass or fail one speech feature
// @Tags         speech
// @Accept       multipart/form-data
// @Produce      json
// @Param        audio    formData  file    true  "Audio file"
// @Param        feature  formData  string  true  "Pronunciation, Fluency, Tone or Pitch"
// @Success      200      {object}  speech.FeatureEvaluation
// @Failure      400      {object}  errors.AppError
// @Router       /speech/evaluate-feature [post]
func (a *App) handleEvaluateFeature(c *gin.Context) {
	feature := strings.TrimSpace(c.PostForm("feature"))
	if !speech.ValidFeature(feature) {
		errors.Respond(c, errors.NewValidationError(fmt.Sprintf("Invalid feature: %q", feature),
			"expected one of Pronunciation, Fluency, Tone, Pitch"))
		return
	}

	in, err := a.speechInputFromUpload(c)
	if err != nil {
		errors.Respond(c, err)
		return
	}

	eval, err := speech.EvaluateFeature(feature, in, a.lexicon, a.thresholds.Speech)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

type tonePracticeRequest struct {
	Context string `json:"context" binding:"required"`
	Emotion string `json:"emotion" binding:"required"`
}

// handleTonePractice godoc
// @Summary      Check a tone practice attempt
// @Tags         speech
// @Accept       json
// @Produce      json
// @Param        request  body      tonePracticeRequest  true  "Context and the emotion delivered"
// @Success      200      {object}  speech.TonePractice
// @Failure      400      {object}  errors.AppError
// @Router       /speech/tone-practice [post]
func (a *App) handleTonePractice(c *gin.Context) {
	var req tonePracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.Respond(c, errors.NewValidationError("Missing context or emotion", err.Error()))
		return
	}

	c.JSON(http.StatusOK, speech.CheckTonePractice(req.Context, req.Emotion))
}

// speechInputFromUpload spools the "audio" upload, then asks the feature
// extractor and the transcriber about it.
func (a *App) speechInputFromUpload(c *gin.Context) (speech.Input, error) {
	path, err := a.saveUpload(c, "audio")
	if err != nil {
		return speech.Input{}, err
	}
	defer os.Remove(path)

	ctx := c.Request.Context()
	th := a.thresholds.Speech

	feats, err := a.features.Extract(ctx, path, th.ChunkSeconds)
	if err != nil {
		return speech.Input{}, err
	}
	if feats.DurationSeconds < th.MinAudioSeconds {
		return speech.Input{}, errors.NewValidationError(
			fmt.Sprintf("Audio too short: %.1fs, need at least %.0fs", feats.DurationSeconds, th.MinAudioSeconds))
	}

	tr, err := a.transcriber.Transcribe(ctx, path)
	if err != nil {
		return speech.Input{}, err
	}

	in := speech.Input{
		Transcription:   tr,
		Chunks:          feats.Chunks,
		DurationSeconds: feats.DurationSeconds,
	}
	if th.MaxAudioSeconds > 0 && in.DurationSeconds > th.MaxAudioSeconds {
		in = truncateInput(in, th.MaxAudioSeconds)
	}
	return in, nil
}

// truncateInput drops chunks and segments that start at or after limit.
func truncateInput(in speech.Input, limit float64) speech.Input {
	chunks := make([]speech.AudioChunkFeatures, 0, len(in.Chunks))
	for _, ch := range in.Chunks {
		if ch.StartTime < limit {
			chunks = append(chunks, ch)
		}
	}

	segments := make([]speech.Segment, 0, len(in.Transcription.Segments))
	texts := make([]string, 0, len(in.Transcription.Segments))
	for _, seg := range in.Transcription.Segments {
		if seg.Start >= limit {
			continue
		}
		segments = append(segments, seg)
		if t := strings.TrimSpace(seg.Text); t != "" {
			texts = append(texts, t)
		}
	}

	tr := in.Transcription
	if len(segments) < len(tr.Segments) {
		tr.Segments = segments
		tr.Text = strings.Join(texts, " ")
	}

	in.Chunks = chunks
	in.Transcription = tr
	in.DurationSeconds = limit
	return in
}

func formRatio(c *gin.Context, field string) (float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, errors.NewValidationError(fmt.Sprintf("%s must be a number between 0 and 1", field), raw)
	}
	return v, nil
}

func (a *App) scoreSpeech(in speech.Input) speech.Report {
	start := time.Now()
	report := speech.Analyze(in, a.lexicon, a.thresholds.Speech)
	if in.DurationSeconds > 0 {
		report.RecordingInfo = speech.NewRecordingInfo(time.Now(), in.DurationSeconds)
	}

	var nulls []string
	if len(in.Chunks) == 0 {
		nulls = append(nulls, "audio_features")
		monitoring.ObserveNullScore("speech", "audio_features", "no_chunks")
	}
	a.metrics.RecordScoreRun("speech", nulls...)

	overall := float64(report.Scoring.OverallScore)
	monitoring.ObserveScore("speech", overall)
	a.logger.ScoreLogger("speech", &overall, time.Since(start),
		"words", speech.CountWords(in.Transcription.Text),
		"chunks", len(in.Chunks),
		"backend", in.Transcription.Backend)

	return report
}
