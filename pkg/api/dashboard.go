package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

const (
	statisticsEndpoint = "statistics"
	freshnessEndpoint  = "is-fresh"
)

// Count decodes either a number or the single-column row [n] the backend sends for counts.
type Count int64

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var row []int64
		if err := json.Unmarshal(data, &row); err != nil {
			return fmt.Errorf("count row: %w", err)
		}
		if len(row) != 1 {
			return fmt.Errorf("count row: expected 1 column, got %d", len(row))
		}
		*c = Count(row[0])
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	*c = Count(n)
	return nil
}

// Text decodes a string, a number or null into a string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = Text(x)
	case float64:
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		return fmt.Errorf("text: unexpected %T", v)
	}
	return nil
}

// Statistics describes the database behind the API.
type Statistics struct {
	LastModified           Text  `json:"last_modified"`
	DBSchemaVersion        Text  `json:"db_schema_version"`
	Version                Text  `json:"version"`
	DBLPVersion            Text  `json:"dblp_version"`
	SemanticScholarVersion Text  `json:"semantic_scholar_version"`
	AminerMAGVersion       Text  `json:"aminer_mag_version"`
	PublicationsCount      Count `json:"publications_count"`
	AuthorsCount           Count `json:"authors_count"`
}

// Statistics returns counts, versions and timestamps of the database.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	if err := c.get(ctx, statisticsEndpoint, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Freshness returns one message per data source saying whether it is up to date.
func (c *Client) Freshness(ctx context.Context) ([]string, error) {
	var messages []string
	if err := c.get(ctx, freshnessEndpoint, nil, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []string{}
	}
	return messages, nil
}

// Dashboard is the home page summary.
type Dashboard struct {
	Statistics *Statistics `json:"statistics"`
	Freshness  []string    `json:"freshness"`
}

// Dashboard fetches statistics and freshness concurrently.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := c.Statistics(gctx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		d.Statistics = stats
		return nil
	})
	g.Go(func() error {
		fresh, err := c.Freshness(gctx)
		if err != nil {
			return fmt.Errorf("freshness: %w", err)
		}
		d.Freshness = fresh
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
