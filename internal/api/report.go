package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"campaignterm/internal/model"
)

const (
	reportPath          = "/import/report"
	respondsOptionsPath = "/import/responds-options"
)

// ReportRequest is the JSON body of POST /import/report.
type ReportRequest struct {
	Type           string `json:"type"`
	EmailType      string `json:"email_type"`
	DateFrom       string `json:"date_from"`
	DateTo         string `json:"date_to"`
	Page           int    `json:"page"`
	PerPage        int    `json:"per_page"`
	RespondsFilter string `json:"responds_filter,omitempty"`
}

// NewReportRequest translates q to its wire form. A page size of All is
// sent as model.AllPerPage on page 1.
func NewReportRequest(q model.ReportQuery) ReportRequest {
	page := q.Page
	if q.PageSize.IsAll() || page < 1 {
		page = 1
	}
	return ReportRequest{
		Type:           q.Kind.Wire(),
		EmailType:      string(q.Campaign),
		DateFrom:       q.DateFrom.String(),
		DateTo:         q.DateTo.String(),
		Page:           page,
		PerPage:        q.PageSize.PerPage(),
		RespondsFilter: q.RespondsCategory,
	}
}

type reportData struct {
	Type           string               `json:"type"`
	Records        json.RawMessage      `json:"records"`
	Pagination     model.Pagination     `json:"pagination"`
	FiltersApplied model.FiltersApplied `json:"filters_applied"`
	MonthlyStats   json.RawMessage      `json:"monthly_stats"`
}

// FetchReport requests one page of the report described by q.
func (c *Client) FetchReport(ctx context.Context, q model.ReportQuery) (*model.ReportResult, error) {
	var data reportData
	if _, err := c.doJSON(ctx, http.MethodPost, reportPath, NewReportRequest(q), &data); err != nil {
		return nil, fmt.Errorf("fetch %s report: %w", q.Kind.Wire(), err)
	}

	records, err := decodeRecords(q.Kind, data.Records)
	if err != nil {
		return nil, fmt.Errorf("fetch %s report: %w", q.Kind.Wire(), &DecodeError{Err: err})
	}
	stats, err := decodeMonthlyStats(data.MonthlyStats)
	if err != nil {
		return nil, fmt.Errorf("fetch %s report: %w", q.Kind.Wire(), &DecodeError{Err: err})
	}

	return &model.ReportResult{
		Kind:       q.Kind,
		Records:    records,
		Pagination: data.Pagination,
		Stats:      stats,
		Filters:    data.FiltersApplied,
	}, nil
}

func decodeRecords(kind model.ReportKind, raw json.RawMessage) ([]model.Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []model.Record{}, nil
	}
	switch kind {
	case model.KindResponds:
		var rs []model.ResponseRecord
		if err := json.Unmarshal(raw, &rs); err != nil {
			return nil, fmt.Errorf("decode responds records: %w", err)
		}
		out := make([]model.Record, len(rs))
		for i, r := range rs {
			out[i] = r
		}
		return out, nil
	default:
		var rs []model.SentRecord
		if err := json.Unmarshal(raw, &rs); err != nil {
			return nil, fmt.Errorf("decode sent records: %w", err)
		}
		out := make([]model.Record, len(rs))
		for i, r := range rs {
			out[i] = r
		}
		return out, nil
	}
}

// emailTypeKeys maps monthly_stats keys of the per-email-type shape.
var emailTypeKeys = map[string]model.EmailType{
	"regular":     model.EmailTypeRegular,
	"Regular":     model.EmailTypeRegular,
	"follow_up_1": model.EmailTypeFollowUp1,
	"Follow up 1": model.EmailTypeFollowUp1,
}

// decodeMonthlyStats accepts both the flat {monthly_sent, ...} shape and the
// {regular: {...}, follow_up_1: {...}} shape.
func decodeMonthlyStats(raw json.RawMessage) (model.MonthlyStats, error) {
	var stats model.MonthlyStats
	if len(raw) == 0 || string(raw) == "null" {
		return stats, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return stats, fmt.Errorf("decode monthly stats: %w", err)
	}
	if _, flat := fields["monthly_sent"]; flat {
		var s model.MonthlySummary
		if err := json.Unmarshal(raw, &s); err != nil {
			return stats, fmt.Errorf("decode monthly stats: %w", err)
		}
		stats.Overall = &s
		return stats, nil
	}
	stats.ByEmailType = make(map[model.EmailType]model.MonthlySummary, len(fields))
	for key, v := range fields {
		t, ok := emailTypeKeys[key]
		if !ok {
			continue
		}
		var s model.MonthlySummary
		if err := json.Unmarshal(v, &s); err != nil {
			return stats, fmt.Errorf("decode monthly stats %q: %w", key, err)
		}
		stats.ByEmailType[t] = s
	}
	return stats, nil
}

// RespondsOptions lists the response categories the server knows about.
func (c *Client) RespondsOptions(ctx context.Context) ([]model.ResponseOption, error) {
	var data struct {
		Options []model.ResponseOption `json:"options"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, respondsOptionsPath, nil, &data); err != nil {
		return nil, fmt.Errorf("fetch responds options: %w", err)
	}
	return data.Options, nil
}
