package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/wikipedia"
)

// WikipediaName is the name the agent uses to call the encyclopedia lookup.
const WikipediaName = "Wikipedia"

// Searcher looks a query up and returns a text summary of what it found.
type Searcher interface {
	Call(ctx context.Context, input string) (string, error)
}

// Wikipedia searches Wikipedia for math concepts and problems.
type Wikipedia struct {
	searcher Searcher
}

// WikipediaConfig configures the Wikipedia lookup.
type WikipediaConfig struct {
	// UserAgent identifies the client to the Wikipedia API, which requires one.
	UserAgent string

	// LanguageCode selects the Wikipedia edition. Default is "en".
	LanguageCode string

	// TopK is the number of articles summarised per query. Default is 2.
	TopK int

	// DocMaxChars caps the text taken from each article. Default is 2000.
	DocMaxChars int
}

// NewWikipedia creates a Wikipedia tool backed by the public Wikipedia API.
func NewWikipedia(cfg WikipediaConfig) *Wikipedia {
	w := wikipedia.New(cfg.UserAgent)
	if cfg.LanguageCode != "" {
		w.LanguageCode = cfg.LanguageCode
	}
	if cfg.TopK > 0 {
		w.TopK = cfg.TopK
	} else {
		w.TopK = 2
	}
	if cfg.DocMaxChars > 0 {
		w.DocMaxChars = cfg.DocMaxChars
	} else {
		w.DocMaxChars = 2000
	}
	return NewWikipediaWithSearcher(w)
}

// NewWikipediaWithSearcher creates a Wikipedia tool around any Searcher.
func NewWikipediaWithSearcher(s Searcher) *Wikipedia {
	return &Wikipedia{searcher: s}
}

// Name returns the tool name.
func (w *Wikipedia) Name() string {
	return WikipediaName
}

// Description returns what this tool does.
func (w *Wikipedia) Description() string {
	return "A tool for searching math-related problems and concepts."
}

// Parameters returns the JSON Schema for the tool's input.
func (w *Wikipedia) Parameters() ParameterSchema {
	return singleStringSchema("query", "The topic or concept to look up, e.g. 'Pythagorean theorem'")
}

// Execute runs the lookup. Lookup failures become failed results the agent
// can observe; they are not returned as errors.
func (w *Wikipedia) Execute(ctx context.Context, arguments string) (Result, error) {
	query := StringArgument(arguments, "query")
	if query == "" {
		return Failure("query cannot be empty"), nil
	}

	out, err := w.searcher.Call(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Failure(fmt.Sprintf("wikipedia lookup failed: %v", err)), nil
	}
	if out == "" {
		return Success("No good Wikipedia search result was found"), nil
	}
	return Success(out), nil
}
