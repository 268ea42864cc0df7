package controllers

import (
	"strings"

	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type SearchController struct {
	search *state.Search
}

func NewSearchController(search *state.Search) *SearchController {
	return &SearchController{search: search}
}

// Index runs ?q= and returns the term with its results. A blank q clears
// the search.
func (sc *SearchController) Index(c *ctx.Context) {
	results := sc.search.Perform(c.Context(), c.Query("q"))
	snap := sc.search.Snapshot()
	c.Success(map[string]any{
		"term":         strings.TrimSpace(c.Query("q")),
		"results":      results,
		"count":        len(results),
		"has_searched": snap.HasSearched,
	})
}

// Current returns the latest search state.
func (sc *SearchController) Current(c *ctx.Context) {
	c.Success(sc.search.Snapshot())
}
