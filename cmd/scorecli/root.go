package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/lexicon"
)

type rootOptions struct {
	thresholdsFile string
	lexiconFile    string
	compact        bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "scorecli",
		Short: "Score recordings and text without running the server",
		Long: `scorecli runs the scoring pipelines on local files.

Examples:
  # Score perception output
  scorecli video processed.json

  # Score a transcript with its audio chunk features
  scorecli speech input.json

  # Score an essay, checking grammar against a LanguageTool server
  scorecli text essay.txt --languagetool http://localhost:8081
`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.thresholdsFile, "thresholds",
		config.GetEnv("THRESHOLDS_FILE", ""), "YAML file overriding the scoring thresholds")
	root.PersistentFlags().StringVar(&opts.lexiconFile, "lexicon",
		config.GetEnv("LEXICON_FILE", ""), "word list replacing the embedded pronunciation vocabulary")
	root.PersistentFlags().BoolVar(&opts.compact, "compact", false, "print JSON on a single line")

	root.AddCommand(newVideoCmd(opts))
	root.AddCommand(newSpeechCmd(opts))
	root.AddCommand(newTextCmd(opts))
	return root
}

func (o *rootOptions) thresholds() (config.Thresholds, error) {
	th, err := config.LoadThresholds(o.thresholdsFile)
	if err != nil {
		return config.Thresholds{}, fmt.Errorf("loading thresholds: %w", err)
	}
	return th, nil
}

func (o *rootOptions) lexicon() (*lexicon.Lexicon, error) {
	if o.lexiconFile == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.LoadFile(o.lexiconFile)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	return lex, nil
}

func (o *rootOptions) print(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if !o.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// readJSON decodes the file at path, or stdin when path is "-".
func readJSON(path string, v interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
