package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/clients"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
)

type textOptions struct {
	languageTool string
	language     string
	nlp          string
	timeout      time.Duration
}

func newTextCmd(opts *rootOptions) *cobra.Command {
	to := &textOptions{}

	cmd := &cobra.Command{
		Use:   "text <file.txt>",
		Short: "Score written text on grammar, readability, structure and coherence",
		Long: `Without --languagetool the grammar category degrades to a neutral 5.0.
Without --nlp sentences are parsed by the built-in part-of-speech tagger.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := opts.thresholds()
			if err != nil {
				return err
			}

			input, err := readText(args[0])
			if err != nil {
				return err
			}

			deps, closeDeps := to.deps(th.TextWeights)
			defer closeDeps()

			ctx, cancel := context.WithTimeout(cmd.Context(), to.timeout)
			defer cancel()

			res, err := text.Analyze(ctx, input, deps)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&to.languageTool, "languagetool", config.GetEnv("LANGUAGETOOL_URL", ""), "LanguageTool server URL")
	cmd.Flags().StringVar(&to.language, "language", "en-US", "LanguageTool language code")
	cmd.Flags().StringVar(&to.nlp, "nlp", config.GetEnv("NLP_URL", ""), "dependency parse service URL")
	cmd.Flags().DurationVar(&to.timeout, "timeout", 30*time.Second, "overall time limit for collaborator calls")
	return cmd
}

func (to *textOptions) deps(weights config.TextWeights) (text.Deps, func()) {
	deps := text.Deps{Weights: weights}
	var closers []func() error

	if to.languageTool != "" {
		lt := clients.NewLanguageTool(clients.Options{BaseURL: to.languageTool, Timeout: to.timeout}, to.language)
		deps.Grammar = lt
		closers = append(closers, lt.Close)
	}
	if to.nlp != "" {
		p := clients.NewNLPParser(clients.Options{BaseURL: to.nlp, Timeout: to.timeout})
		deps.Parser = p
		closers = append(closers, p.Close)
	}

	return deps, func() {
		for _, c := range closers {
			c()
		}
	}
}

func readText(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
