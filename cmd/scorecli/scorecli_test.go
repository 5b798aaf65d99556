package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/speech"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/video"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("THRESHOLDS_FILE", "")
	t.Setenv("LEXICON_FILE", "")
	t.Setenv("LANGUAGETOOL_URL", "")
	t.Setenv("NLP_URL", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeJSON(t *testing.T, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return writeFile(t, name, data)
}

func pt(x, y float64) *video.Point { return &video.Point{X: x, Y: y} }

func poseVideo(n int) video.ProcessedVideo {
	frames := make([]video.Frame, n)
	for i := range frames {
		frames[i] = video.Frame{
			Index: i * video.DefaultFrameSkip,
			Pose: &video.Pose{
				Nose:          pt(0.5, 0.2),
				LeftShoulder:  pt(0.4, 0.35),
				RightShoulder: pt(0.6, 0.35),
				LeftHip:       pt(0.45, 0.7),
				RightHip:      pt(0.55, 0.7),
			},
		}
	}
	return video.ProcessedVideo{
		Frames: frames,
		Meta: video.VideoMeta{
			Width:           video.DefaultWidth,
			Height:          video.DefaultHeight,
			FPS:             video.DefaultFPS,
			TotalFrames:     n * video.DefaultFrameSkip,
			ProcessedFrames: n,
			UsableFrames:    n,
		},
	}
}

func TestVideoCommand(t *testing.T) {
	path := writeJSON(t, "processed.json", poseVideo(20))

	t.Run("scores posture", func(t *testing.T) {
		out, err := run(t, "video", path)
		require.NoError(t, err)

		var res video.VideoResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		require.NotNil(t, res.Posture.Score)
		assert.Nil(t, res.Gestures.Score)
		assert.Equal(t, *res.Posture.Score, res.Overall.AverageScore)
	})

	t.Run("threshold overrides apply", func(t *testing.T) {
		th := writeFile(t, "thresholds.yaml", []byte("posture:\n  min_frames: 50\n"))
		out, err := run(t, "--thresholds", th, "video", path)
		require.NoError(t, err)

		var res video.VideoResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Nil(t, res.Posture.Score)
		assert.Equal(t, "insufficient_pose_frames", res.Posture.Reason)
	})

	t.Run("invalid thresholds", func(t *testing.T) {
		th := writeFile(t, "thresholds.yaml", []byte("posture:\n  min_frames: 0\n"))
		_, err := run(t, "--thresholds", th, "video", path)
		assert.ErrorContains(t, err, "min_frames")
	})

	t.Run("compact output is one line", func(t *testing.T) {
		out, err := run(t, "--compact", "video", path)
		require.NoError(t, err)
		assert.Equal(t, 1, bytes.Count([]byte(out), []byte("\n")))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "video", filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("needs exactly one argument", func(t *testing.T) {
		_, err := run(t, "video")
		assert.Error(t, err)
	})
}

func speechInput() speech.Input {
	return speech.Input{
		Transcription: speech.TranscriptionResult{
			Text: "Thank you so much for the lovely gift.",
			Segments: []speech.Segment{{
				Start: 0, End: 3, Text: "Thank you so much for the lovely gift.",
				Words: []speech.WordTimestamp{
					{Word: "Thank", Start: 0, End: 0.3},
					{Word: "you", Start: 0.3, End: 0.6},
					{Word: "so", Start: 0.6, End: 0.9},
					{Word: "much", Start: 0.9, End: 1.2},
					{Word: "for", Start: 1.2, End: 1.5},
					{Word: "the", Start: 1.5, End: 1.8},
					{Word: "lovely", Start: 1.8, End: 2.4},
					{Word: "gift.", Start: 2.4, End: 3},
				},
			}},
		},
		Chunks: []speech.AudioChunkFeatures{
			{ChunkIndex: 0, StartTime: 0, EndTime: 3, Duration: 3, PitchMean: 200, PitchVariance: 900, PitchMax: 280, PitchMin: 140, PitchRange: 140},
		},
		PromptMatchRatio: 1,
		DurationSeconds:  3,
	}
}

func TestSpeechCommand(t *testing.T) {
	path := writeJSON(t, "input.json", speechInput())

	t.Run("full report", func(t *testing.T) {
		out, err := run(t, "speech", path)
		require.NoError(t, err)

		var rep speech.Report
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.Equal(t, 100, rep.Scoring.Scores.PromptMatch)
		assert.Equal(t, speech.ContextThanks, rep.ToneAnalysis.OverallContext)
		require.NotNil(t, rep.RecordingInfo)
		assert.Equal(t, "3.0 seconds", rep.RecordingInfo.Duration)
	})

	t.Run("single feature", func(t *testing.T) {
		out, err := run(t, "speech", path, "--feature", speech.FeaturePitch)
		require.NoError(t, err)

		var eval speech.FeatureEvaluation
		require.NoError(t, json.Unmarshal([]byte(out), &eval))
		assert.Equal(t, speech.FeaturePitch, eval.Feature)
	})

	t.Run("unknown feature", func(t *testing.T) {
		_, err := run(t, "speech", path, "--feature", "Volume")
		assert.ErrorContains(t, err, "invalid feature")
	})

	t.Run("custom lexicon", func(t *testing.T) {
		lex := writeFile(t, "words.txt", []byte("thank\nyou\nso\nmuch\nfor\nthe\nlovely\ngift\n"))
		out, err := run(t, "--lexicon", lex, "speech", path)
		require.NoError(t, err)

		var rep speech.Report
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.Equal(t, 100.0, rep.Scoring.Scores.Pronunciation)
	})

	t.Run("prompt ratio out of range", func(t *testing.T) {
		in := speechInput()
		in.PromptMatchRatio = 2
		_, err := run(t, "speech", writeJSON(t, "bad.json", in))
		assert.ErrorContains(t, err, "prompt_match_ratio")
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := run(t, "speech", writeFile(t, "bad.json", []byte(`{"transcription":`)))
		assert.ErrorContains(t, err, "decoding")
	})
}

const essay = `Public speaking is a skill that anyone can learn. First, you need to prepare your material carefully.
However, preparation alone is not enough. You should also practice in front of friends, because their feedback helps you improve.`

func TestTextCommand(t *testing.T) {
	path := writeFile(t, "essay.txt", []byte(essay))

	t.Run("without a grammar server", func(t *testing.T) {
		out, err := run(t, "text", path)
		require.NoError(t, err)

		var res text.Analysis
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.Success)
		assert.True(t, res.Details.Grammar.Degraded())
		assert.Equal(t, 5.0, res.Analysis.Categories.GrammarSpelling.Score)
	})

	t.Run("with languagetool", func(t *testing.T) {
		gotText := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/check", r.URL.Path)
			assert.NoError(t, r.ParseForm())
			gotText <- r.PostForm.Get("text")
			assert.Equal(t, "en-GB", r.PostForm.Get("language"))
			io.WriteString(w, `{"matches":[]}`)
		}))
		defer srv.Close()

		out, err := run(t, "text", path, "--languagetool", srv.URL, "--language", "en-GB")
		require.NoError(t, err)
		assert.Equal(t, essay, <-gotText)

		var res text.Analysis
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.False(t, res.Details.Grammar.Degraded())
		assert.Equal(t, 0, res.Analysis.Categories.GrammarSpelling.TotalErrors)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := run(t, "text", writeFile(t, "empty.txt", []byte("  \n")))
		assert.ErrorContains(t, err, "Text is required")
	})
}
