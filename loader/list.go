package loader

import (
	"context"
	"log/slog"

	"github.com/scipunch/articleviewer/cache"
	"github.com/scipunch/articleviewer/parser"
)

// ListLoader loads the article index under the fixed list key
type ListLoader struct {
	orch    *Orchestrator
	url     string
	decoder parser.Decoder
}

func NewListLoader(orch *Orchestrator, url string, decoder parser.Decoder) *ListLoader {
	return &ListLoader{orch: orch, url: url, decoder: decoder}
}

// Load returns a new snapshot of the list; force bypasses the local copy
func (l *ListLoader) Load(ctx context.Context, force bool) (parser.List, error) {
	data, err := l.orch.Load(ctx, cache.ListKey, l.url, force)
	if err != nil {
		return parser.List{}, err
	}

	articles, err := l.decoder.Decode(data)
	if err != nil {
		return parser.List{}, &Failure{Kind: KindParse, Key: cache.ListKey, Err: err}
	}

	slog.Info("article list loaded", "articles", len(articles), "forced", force)
	return parser.NewList(articles), nil
}
