package report

import (
	"fmt"

	"campaignterm/internal/model"
)

// AllCategories disables response filtering.
const AllCategories = "All"

// FilterPolicy decides where the response category filter is applied.
type FilterPolicy int

const (
	// FilterClientSide filters already-fetched records; no new request.
	FilterClientSide FilterPolicy = iota
	// FilterServerSide sends the category as responds_filter.
	FilterServerSide
)

func ParseFilterPolicy(s string) (FilterPolicy, error) {
	switch s {
	case "client":
		return FilterClientSide, nil
	case "server":
		return FilterServerSide, nil
	}
	return 0, fmt.Errorf("unknown responds filter mode %q", s)
}

func (p FilterPolicy) String() string {
	if p == FilterServerSide {
		return "server"
	}
	return "client"
}

// FilterResponses keeps the response records whose label equals category,
// preserving order. "All" or "" returns every record.
func FilterResponses(records []model.Record, category string) []model.Record {
	if category == "" || category == AllCategories {
		return records
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if rr, ok := r.(model.ResponseRecord); ok && rr.ResponseLabel == category {
			out = append(out, r)
		}
	}
	return out
}
