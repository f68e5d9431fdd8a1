package factory

import (
	"fmt"

	"github.com/scipunch/articleviewer/config"
	"github.com/scipunch/articleviewer/parser"
	"github.com/scipunch/articleviewer/parser/jsonlist"
	"github.com/scipunch/articleviewer/parser/rss"
)

// Init returns the list decoder for a configured format
func Init(format config.ListFormat) (parser.Decoder, error) {
	switch format {
	case config.JSON:
		return jsonlist.New(), nil
	case config.RSS:
		return rss.New(), nil
	default:
		return nil, fmt.Errorf("unknown list format: %s", format)
	}
}

// ContentType is the media type the list endpoint is asked for
func ContentType(format config.ListFormat) string {
	switch format {
	case config.RSS:
		return "application/rss+xml"
	default:
		return "application/json"
	}
}
