package parser

import (
	"errors"
	"fmt"
)

// ErrParse marks a list payload that could not be decoded as a whole
var ErrParse = errors.New("malformed article list")

// ErrOutOfRange is returned for positions outside a list
var ErrOutOfRange = errors.New("position out of range")

// Article is one entry of the published list
type Article struct {
	ID       int
	Title    string
	ImageURL string
}

func (a Article) String() string {
	return a.Title
}

// Decoder turns a raw list payload into articles.
// A payload is decoded entirely or not at all.
type Decoder interface {
	Decode(data []byte) ([]Article, error)
}

// List is an immutable snapshot of the published articles
type List struct {
	articles []Article
}

// NewList copies articles into a new snapshot
func NewList(articles []Article) List {
	return List{articles: append([]Article(nil), articles...)}
}

func (l List) Len() int {
	return len(l.articles)
}

// At returns the article at pos, 0 <= pos < Len()
func (l List) At(pos int) (Article, error) {
	if pos < 0 || pos >= len(l.articles) {
		return Article{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, pos, len(l.articles))
	}
	return l.articles[pos], nil
}

// Articles returns a copy of the snapshot contents
func (l List) Articles() []Article {
	return append([]Article(nil), l.articles...)
}
