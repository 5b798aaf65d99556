package clients

import (
	"context"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
)

// NLPParser fetches dependency parses from the NLP service.
type NLPParser struct {
	base
}

var _ text.Parser = (*NLPParser)(nil)

func NewNLPParser(opts Options) *NLPParser {
	return &NLPParser{base: newBase(NameNLP, opts)}
}

// Parse posts {"text": input} to /parse.
func (p *NLPParser) Parse(ctx context.Context, input string) (*text.Parse, error) {
	var res text.Parse
	if err := p.postJSON(ctx, "/parse", map[string]string{"text": input}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (p *NLPParser) HealthCheck(ctx context.Context) error {
	return p.Ping(ctx, "/health")
}
