// Package jsonlist decodes the JSON article index:
//
//	[{"id": 1, "title": "A", "photo": "http://x/a.jpg"}, ...]
package jsonlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scipunch/articleviewer/parser"
)

type rawArticle struct {
	ID    *int    `json:"id"`
	Title *string `json:"title"`
	Photo *string `json:"photo"`
}

type Decoder struct{}

func New() Decoder {
	return Decoder{}
}

func (Decoder) Decode(data []byte) ([]parser.Article, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", parser.ErrParse)
	}

	var raw []rawArticle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", parser.ErrParse, err)
	}

	articles := make([]parser.Article, 0, len(raw))
	seen := make(map[int]struct{}, len(raw))
	for i, r := range raw {
		switch {
		case r.ID == nil:
			return nil, fmt.Errorf("%w: element %d has no id", parser.ErrParse, i)
		case r.Title == nil:
			return nil, fmt.Errorf("%w: element %d has no title", parser.ErrParse, i)
		case r.Photo == nil || strings.TrimSpace(*r.Photo) == "":
			return nil, fmt.Errorf("%w: element %d has no photo", parser.ErrParse, i)
		}
		if _, dup := seen[*r.ID]; dup {
			return nil, fmt.Errorf("%w: element %d repeats id %d", parser.ErrParse, i, *r.ID)
		}
		seen[*r.ID] = struct{}{}
		articles = append(articles, parser.Article{
			ID:       *r.ID,
			Title:    *r.Title,
			ImageURL: *r.Photo,
		})
	}
	return articles, nil
}
