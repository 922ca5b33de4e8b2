package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
	"github.com/ritzau/aip-explorer/pkg/metrics"
)

const authorGraphEndpoint = "authors-graph-psql"

// authorGraphResponse uses pointers so a missing list can be told apart from an empty one
type authorGraphResponse struct {
	CitationNodes     *[]authorgraph.Node `json:"citation_nodes"`
	CoauthorshipNodes *[]authorgraph.Node `json:"coauthorship_nodes"`
	CitationEdges     *[]authorgraph.Edge `json:"citation_edges"`
	CoauthorshipEdges *[]authorgraph.Edge `json:"coauthorship_edges"`
}

func (r *authorGraphResponse) snapshot() (*authorgraph.Snapshot, error) {
	var missing []string
	if r.CitationNodes == nil {
		missing = append(missing, "citation_nodes")
	}
	if r.CoauthorshipNodes == nil {
		missing = append(missing, "coauthorship_nodes")
	}
	if r.CitationEdges == nil {
		missing = append(missing, "citation_edges")
	}
	if r.CoauthorshipEdges == nil {
		missing = append(missing, "coauthorship_edges")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s missing %v", ErrMalformedResponse, authorGraphEndpoint, missing)
	}

	return &authorgraph.Snapshot{
		CitationNodes:     *r.CitationNodes,
		CoauthorshipNodes: *r.CoauthorshipNodes,
		CitationEdges:     *r.CitationEdges,
		CoauthorshipEdges: *r.CoauthorshipEdges,
	}, nil
}

// AuthorGraph fetches the citation and coauthorship neighbourhood of an author.
//
// Any non-success status is reported as ErrAuthorNotFound; the backend answers
// 404 for unknown names and the dashboard treats every failure the same way.
// Successful lookups are cached, and callers always receive their own copy.
func (c *Client) AuthorGraph(ctx context.Context, name string) (*authorgraph.Snapshot, error) {
	if c.cache != nil {
		if s, ok := c.cache.Get(name); ok {
			metrics.APICacheHits.Inc()
			return s.Clone(), nil
		}
	}

	var raw authorGraphResponse
	err := c.get(ctx, authorGraphEndpoint, url.Values{"author_name": {name}}, &raw)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) || errors.Is(err, ErrRateLimited) {
			return nil, fmt.Errorf("%w: %q: %w", ErrAuthorNotFound, name, err)
		}
		return nil, err
	}

	s, err := raw.snapshot()
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(name, s.Clone())
	}
	return s, nil
}

// PurgeCache drops every cached author graph.
func (c *Client) PurgeCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
}
