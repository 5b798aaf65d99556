package main

import (
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/video"
)

func newVideoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "video <processed.json>",
		Short: "Score per-frame landmarks from the perception extractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := opts.thresholds()
			if err != nil {
				return err
			}

			var pv video.ProcessedVideo
			if err := readJSON(args[0], &pv); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), video.Score(pv, th))
		},
	}
}
