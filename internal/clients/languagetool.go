package clients

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
)

const defaultLanguage = "en-US"

type ltResponse struct {
	Matches []ltMatch `json:"matches"`
}

type ltMatch struct {
	Message      string `json:"message"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Context struct {
		Text string `json:"text"`
	} `json:"context"`
	Rule struct {
		ID       string `json:"id"`
		Category struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"category"`
	} `json:"rule"`
}

// LanguageTool checks grammar and spelling against a LanguageTool server.
type LanguageTool struct {
	base
	language string
}

var _ text.GrammarChecker = (*LanguageTool)(nil)

// NewLanguageTool creates a client for the server at opts.BaseURL.
// An empty language selects en-US.
func NewLanguageTool(opts Options, language string) *LanguageTool {
	if language == "" {
		language = defaultLanguage
	}
	return &LanguageTool{base: newBase(NameLanguageTool, opts), language: language}
}

// Check posts text to /v2/check and returns every rule match.
func (lt *LanguageTool) Check(ctx context.Context, input string) ([]text.GrammarMatch, error) {
	form := url.Values{}
	form.Set("text", input)
	form.Set("language", lt.language)
	form.Set("enabledOnly", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lt.url("/v2/check"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewInternalError("failed to build grammar request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var res ltResponse
	if err := lt.do(ctx, req, &res); err != nil {
		return nil, err
	}

	matches := make([]text.GrammarMatch, 0, len(res.Matches))
	for _, m := range res.Matches {
		gm := text.GrammarMatch{
			Message:  m.Message,
			Context:  m.Context.Text,
			Offset:   m.Offset,
			Length:   m.Length,
			Category: m.Rule.Category.Name,
		}
		for _, r := range m.Replacements {
			gm.Replacements = append(gm.Replacements, r.Value)
		}
		matches = append(matches, gm)
	}
	return matches, nil
}

// HealthCheck asks the server for its language list.
func (lt *LanguageTool) HealthCheck(ctx context.Context) error {
	return lt.Ping(ctx, "/v2/languages")
}
