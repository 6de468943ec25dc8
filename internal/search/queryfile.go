// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperflow/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be reloaded to file or summarize a result without
// querying arXiv again.
type QueryFile struct {
	Query   QueryParams        `yaml:"query"`
	Results []types.RecordDict `yaml:"results"`
	Summary QuerySummary       `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Text       string `yaml:"text,omitempty"`
	MaxResults int    `yaml:"max_results,omitempty"`
	SortBy     string `yaml:"sort_by,omitempty"`
	Category   string `yaml:"category,omitempty"`
	DateFrom   string `yaml:"date_from,omitempty"`
	DateTo     string `yaml:"date_to,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves query parameters and results to a YAML file.
func WriteQueryFile(path string, query Query, records []types.PaperRecord) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:       query.Text,
			MaxResults: query.MaxResults,
			SortBy:     string(query.SortBy),
			Category:   query.Category,
			DateFrom:   query.DateFrom,
			DateTo:     query.DateTo,
		},
		Results: toDicts(records),
		Summary: QuerySummary{
			Total:     len(records),
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query.
func (p QueryParams) ToQuery() Query {
	return Query{
		Text:       p.Text,
		MaxResults: p.MaxResults,
		SortBy:     ParseSortBy(p.SortBy),
		Category:   p.Category,
		DateFrom:   p.DateFrom,
		DateTo:     p.DateTo,
	}
}

// Records converts the saved results back into PaperRecords.
func (qf *QueryFile) Records() ([]types.PaperRecord, error) {
	out := make([]types.PaperRecord, 0, len(qf.Results))
	for i, d := range qf.Results {
		r, err := types.FromDict(d)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Record returns the result at 1-based position n, as listed by FormatText.
func (qf *QueryFile) Record(n int) (types.PaperRecord, error) {
	if n < 1 || n > len(qf.Results) {
		return types.PaperRecord{}, fmt.Errorf("result %d out of range (1-%d)", n, len(qf.Results))
	}
	return types.FromDict(qf.Results[n-1])
}
