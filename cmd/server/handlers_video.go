package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/clients"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/video"
)

// handleVideoScore godoc
// @Summary      Score extracted video landmarks
// @Description  Runs the coverage validator and the posture, gesture and expression scorers over perception output.
// @Tags         video
// @Accept       json
// @Produce      json
// @Param        request  body      video.ProcessedVideo  true  "Per-frame landmarks and video metadata"
// @Success      200      {object}  video.VideoResult
// @Failure      400      {object}  errors.AppError
// @Router       /video/score [post]
func (a *App) handleVideoScore(c *gin.Context) {
	var pv video.ProcessedVideo
	if err := c.ShouldBindJSON(&pv); err != nil {
		errors.Respond(c, errors.NewValidationError("invalid JSON format", err.Error()))
		return
	}

	c.JSON(http.StatusOK, a.scoreVideo(pv))
}

// handleVideoAnalyze godoc
// @Summary      Score an uploaded video
// @Description  Sends the video to the perception extractor, then scores the landmarks.
// @Tags         video
// @Accept       multipart/form-data
// @Produce      json
// @Param        video       formData  file  true   "Video file"
// @Param        frame_skip  formData  int   false  "Process every Nth frame"
// @Success      200         {object}  video.VideoResult
// @Failure      400         {object}  errors.AppError
// @Failure      502         {object}  errors.AppError
// @Router       /video/analyze [post]
func (a *App) handleVideoAnalyze(c *gin.Context) {
	frameSkip := clients.DefaultFrameSkip
	if raw := c.PostForm("frame_skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errors.Respond(c, errors.NewValidationError("frame_skip must be a positive integer", raw))
			return
		}
		frameSkip = n
	}

	path, err := a.saveUpload(c, "video")
	if err != nil {
		errors.Respond(c, err)
		return
	}
	defer os.Remove(path)

	pv, err := a.perception.Extract(c.Request.Context(), path, frameSkip)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	if pv.Meta.FrameSkip == 0 {
		pv.Meta.FrameSkip = frameSkip
	}

	c.JSON(http.StatusOK, a.scoreVideo(pv))
}

func (a *App) scoreVideo(pv video.ProcessedVideo) video.VideoResult {
	start := time.Now()
	res := video.Score(pv, a.thresholds)

	var nulls []string
	for _, m := range []struct {
		name string
		res  video.ModalityResult
	}{
		{video.CategoryPosture, res.Posture},
		{video.CategoryGestures, res.Gestures},
		{video.CategoryExpressions, res.Expressions},
	} {
		if !m.res.Scored() {
			nulls = append(nulls, m.name)
			monitoring.ObserveNullScore("video", m.name, m.res.Reason)
		}
	}
	a.metrics.RecordScoreRun("video", nulls...)

	var overall *float64
	if len(nulls) < 3 {
		score := res.Overall.AverageScore
		overall = &score
		monitoring.ObserveScore("video", score*10)
	}
	a.logger.ScoreLogger("video", overall, time.Since(start),
		"frames", len(pv.Frames),
		"null_modalities", nulls)

	return res
}
