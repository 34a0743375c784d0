// Package report coordinates report queries: it issues at most one request
// per tab, drops stale responses, and derives the pagination window and
// response filter views from what was published.
package report

import "campaignterm/internal/model"

// Normalize returns q with page ≥ 1, and page 1 whenever the page size is All.
func Normalize(q model.ReportQuery) model.ReportQuery {
	if q.Page < 1 || q.PageSize.IsAll() {
		q.Page = 1
	}
	if q.PageSize == (model.PageSize{}) {
		q.PageSize = model.DefaultPageSize
	}
	return q
}
