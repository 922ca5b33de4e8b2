package api

import (
	"context"
	"net/url"
	"strconv"
)

const hotKeywordsEndpoint = "hot-keywords"

// DefaultHotKeywordsYear is used when no year is given.
const DefaultHotKeywordsYear = 2021

// HotKeywordsParams tunes the keyword trend analysis. Zero values are left out
// so the backend applies its own defaults; RAdjustment is sent whenever set.
type HotKeywordsParams struct {
	Year             int     `json:"year"`
	PRate            float64 `json:"p_rate,omitempty"`
	CRate            float64 `json:"c_rate,omitempty"`
	RAdjustment      *bool   `json:"r_adjustment,omitempty"`
	NumberOfFeatures int     `json:"number_of_features,omitempty"`
	RMin             int     `json:"r_min,omitempty"`
	DT               int     `json:"dt,omitempty"`
}

// Values builds the query string for the hot keywords endpoint.
func (p HotKeywordsParams) Values() url.Values {
	year := p.Year
	if year == 0 {
		year = DefaultHotKeywordsYear
	}

	v := url.Values{}
	v.Set("year", strconv.Itoa(year))
	if p.PRate != 0 {
		v.Set("p_rate", strconv.FormatFloat(p.PRate, 'g', -1, 64))
	}
	if p.CRate != 0 {
		v.Set("c_rate", strconv.FormatFloat(p.CRate, 'g', -1, 64))
	}
	if p.RAdjustment != nil {
		v.Set("r_adjustment", strconv.FormatBool(*p.RAdjustment))
	}
	if p.NumberOfFeatures != 0 {
		v.Set("number_of_features", strconv.Itoa(p.NumberOfFeatures))
	}
	if p.RMin != 0 {
		v.Set("r_min", strconv.Itoa(p.RMin))
	}
	if p.DT != 0 {
		v.Set("dt", strconv.Itoa(p.DT))
	}
	return v
}

// HotKeywords returns the keywords trending in the given year.
func (c *Client) HotKeywords(ctx context.Context, p HotKeywordsParams) ([]string, error) {
	var keywords []string
	if err := c.get(ctx, hotKeywordsEndpoint, p.Values(), &keywords); err != nil {
		return nil, err
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, nil
}
