package filter

import (
	"log/slog"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/scipunch/articleviewer/config"
	"github.com/scipunch/articleviewer/parser"
)

// FilterPipeline hides articles from the browsed list by title
type FilterPipeline struct {
	filters map[string]*CompiledFilter
}

// CompiledFilter contains compiled regex patterns for efficient matching
type CompiledFilter struct {
	config          config.Filter
	excludePatterns []*regexp.Regexp
}

// NewFilterPipeline creates a new filter pipeline from config
func NewFilterPipeline(filtersConfig map[string]config.Filter) (*FilterPipeline, error) {
	compiled := make(map[string]*CompiledFilter)

	for name, filterCfg := range filtersConfig {
		cf := &CompiledFilter{
			config:          filterCfg,
			excludePatterns: make([]*regexp.Regexp, 0, len(filterCfg.ExcludePatterns)),
		}

		for _, pattern := range filterCfg.ExcludePatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				slog.Warn("invalid regex pattern in filter", "filter", name, "pattern", pattern, "error", err)
				continue
			}
			cf.excludePatterns = append(cf.excludePatterns, re)
		}

		compiled[name] = cf
	}

	return &FilterPipeline{filters: compiled}, nil
}

// Apply returns a new list holding the articles that pass every named filter.
// The input list is left untouched.
func (fp *FilterPipeline) Apply(list parser.List, filterNames []string) parser.List {
	if len(filterNames) == 0 {
		return list
	}

	var kept []parser.Article
	for _, a := range list.Articles() {
		include, reason := fp.ShouldInclude(a, filterNames)
		if !include {
			slog.Debug("article filtered out", "title", a.Title, "reason", reason)
			continue
		}
		kept = append(kept, a)
	}
	return parser.NewList(kept)
}

// ShouldInclude returns true if the article passes all filters in the pipeline
func (fp *FilterPipeline) ShouldInclude(article parser.Article, filterNames []string) (bool, string) {
	for _, filterName := range filterNames {
		filter, exists := fp.filters[filterName]
		if !exists {
			slog.Warn("filter not found, skipping", "filter_name", filterName)
			continue
		}

		if shouldInclude, reason := applyFilter(article, filter, filterName); !shouldInclude {
			return false, reason
		}
	}

	return true, ""
}

func applyFilter(article parser.Article, filter *CompiledFilter, filterName string) (bool, string) {
	title := article.Title

	if filter.config.MinTitleLength > 0 && utf8.RuneCountInString(title) < filter.config.MinTitleLength {
		return false, filterName + ":min_title_length"
	}

	if filter.config.MinWords > 0 && countWords(title) < filter.config.MinWords {
		return false, filterName + ":min_words"
	}

	for _, pattern := range filter.excludePatterns {
		if pattern.MatchString(title) {
			return false, filterName + ":exclude_pattern[" + pattern.String() + "]"
		}
	}

	return true, ""
}

// countWords counts the number of words in text
func countWords(text string) int {
	words := 0
	inWord := false

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if !inWord {
				words++
				inWord = true
			}
		} else {
			inWord = false
		}
	}

	return words
}
