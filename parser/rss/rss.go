// Package rss builds the article list from an RSS or Atom feed whose items
// carry an image, either as an image enclosure or as the item image.
package rss

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/scipunch/articleviewer/parser"
)

// Decoder is safe for concurrent use; gofeed parsers are not, so each
// Decode gets its own.
type Decoder struct{}

func New() *Decoder {
	return &Decoder{}
}

// Decode maps feed items onto articles in feed order; ids are 1-based positions
func (d *Decoder) Decode(data []byte) ([]parser.Article, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", parser.ErrParse, err)
	}

	articles := make([]parser.Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: item %d has no title", parser.ErrParse, i)
		}
		image := imageURL(item)
		if image == "" {
			return nil, fmt.Errorf("%w: item %d (%s) has no image", parser.ErrParse, i, title)
		}
		articles = append(articles, parser.Article{
			ID:       i + 1,
			Title:    title,
			ImageURL: image,
		})
	}
	return articles, nil
}

func imageURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if item.Image != nil {
		return item.Image.URL
	}
	return ""
}
