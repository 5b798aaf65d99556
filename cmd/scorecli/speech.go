package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/speech"
)

func newSpeechCmd(opts *rootOptions) *cobra.Command {
	var feature string

	cmd := &cobra.Command{
		Use:   "speech <input.json>",
		Short: "Score a transcript and its audio chunk features",
		Long: `Reads {"transcription": ..., "chunks": [...], "prompt_match_ratio": 0.8}
and prints the full speech report, or a pass/fail verdict with --feature.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if feature != "" && !speech.ValidFeature(feature) {
				return fmt.Errorf("invalid feature %q: expected Pronunciation, Fluency, Tone or Pitch", feature)
			}

			th, err := opts.thresholds()
			if err != nil {
				return err
			}
			lex, err := opts.lexicon()
			if err != nil {
				return err
			}

			var in speech.Input
			if err := readJSON(args[0], &in); err != nil {
				return err
			}
			if in.PromptMatchRatio < 0 || in.PromptMatchRatio > 1 {
				return fmt.Errorf("prompt_match_ratio must be between 0 and 1, got %g", in.PromptMatchRatio)
			}

			if feature != "" {
				eval, err := speech.EvaluateFeature(feature, in, lex, th.Speech)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), eval)
			}

			report := speech.Analyze(in, lex, th.Speech)
			if in.DurationSeconds > 0 {
				report.RecordingInfo = speech.NewRecordingInfo(time.Now(), in.DurationSeconds)
			}
			return opts.print(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&feature, "feature", "", "evaluate a single feature: Pronunciation, Fluency, Tone or Pitch")
	return cmd
}
