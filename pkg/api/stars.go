package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Scope selects global or keyword-local rising stars.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLocal  Scope = "local"
)

// Algorithm selects how rising stars are ranked.
type Algorithm string

const (
	AlgorithmBasic    Algorithm = "basic"
	AlgorithmClusters Algorithm = "clusters"
	AlgorithmPageRank Algorithm = "pagerank"
)

// RisingStarsParams selects one of the six rising stars endpoints and its parameters.
type RisingStarsParams struct {
	FirstYear int       `json:"first_year"`
	Number    int       `json:"number"`
	Scope     Scope     `json:"scope"`
	Algorithm Algorithm `json:"algorithm"`
	Keywords  []string  `json:"keywords,omitempty"`
}

// Endpoint returns rising-stars[-local][-clusters|-page-rank]
func (p RisingStarsParams) Endpoint() string {
	endpoint := "rising-stars"
	if p.Scope == ScopeLocal {
		endpoint += "-local"
	}
	switch p.Algorithm {
	case AlgorithmClusters:
		endpoint += "-clusters"
	case AlgorithmPageRank:
		endpoint += "-page-rank"
	}
	return endpoint
}

// Values builds the query string. Keywords are only sent for local scope.
func (p RisingStarsParams) Values() url.Values {
	v := url.Values{}
	v.Set("first_year", strconv.Itoa(p.FirstYear))
	v.Set("number", strconv.Itoa(p.Number))
	if p.Scope == ScopeLocal {
		for _, k := range p.Keywords {
			v.Add("keyword", k)
		}
	}
	return v
}

// Validate checks the scope and algorithm names.
func (p RisingStarsParams) Validate() error {
	switch p.Scope {
	case "", ScopeGlobal, ScopeLocal:
	default:
		return fmt.Errorf("unknown rising stars scope %q", p.Scope)
	}
	switch p.Algorithm {
	case "", AlgorithmBasic, AlgorithmClusters, AlgorithmPageRank:
	default:
		return fmt.Errorf("unknown rising stars algorithm %q", p.Algorithm)
	}
	return nil
}

// RisingStar is one ranked author.
type RisingStar struct {
	AuthorID         int64   `json:"author_id"`
	AuthorName       string  `json:"author_name"`
	ZScore           float64 `json:"z_score"`
	FirstPublication int     `json:"first_publication"`
}

// RisingStars returns the authors with an unusually fast citation start.
func (c *Client) RisingStars(ctx context.Context, p RisingStarsParams) ([]RisingStar, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var stars []RisingStar
	if err := c.get(ctx, p.Endpoint(), p.Values(), &stars); err != nil {
		return nil, err
	}
	if stars == nil {
		stars = []RisingStar{}
	}
	return stars, nil
}
