package report

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"campaignterm/internal/model"
)

func baseQuery() model.ReportQuery {
	return model.ReportQuery{
		Kind:     model.KindSent,
		Campaign: model.CampaignGOLY,
		DateFrom: model.Date{Year: 2025, Month: 10, Day: 1},
		DateTo:   model.Date{Year: 2025, Month: 10, Day: 31},
		Page:     1,
		PageSize: model.DefaultPageSize,
	}
}

func resultWith(sent int) *model.ReportResult {
	return &model.ReportResult{
		Kind:       model.KindSent,
		Pagination: model.Pagination{Page: 1, PerPage: 50, TotalPages: 1, TotalRecords: sent},
		Stats:      model.MonthlyStats{Overall: &model.MonthlySummary{Sent: sent}},
	}
}

type fakeFetcher struct {
	calls []model.ReportQuery
	res   *model.ReportResult
	err   error
}

func (f *fakeFetcher) FetchReport(_ context.Context, q model.ReportQuery) (*model.ReportResult, error) {
	f.calls = append(f.calls, q)
	return f.res, f.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   model.ReportQuery
		page int
		size model.PageSize
	}{
		{"zero page", model.ReportQuery{Page: 0, PageSize: model.PageSizeOf(10)}, 1, model.PageSizeOf(10)},
		{"all forces page 1", model.ReportQuery{Page: 4, PageSize: model.PageSizeAll}, 1, model.PageSizeAll},
		{"unset size", model.ReportQuery{Page: 3}, 3, model.DefaultPageSize},
		{"unchanged", model.ReportQuery{Page: 2, PageSize: model.PageSizeOf(20)}, 2, model.PageSizeOf(20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got.Page != tt.page || got.PageSize != tt.size {
				t.Errorf("Normalize = page %d size %s, want page %d size %s", got.Page, got.PageSize, tt.page, tt.size)
			}
		})
	}
}

func TestOnQueryChangeIdempotent(t *testing.T) {
	c := NewCoordinator()
	q := baseQuery()

	if _, ok := c.OnQueryChange(model.KindSent, q); !ok {
		t.Fatal("first query should issue a request")
	}
	if _, ok := c.OnQueryChange(model.KindSent, q); ok {
		t.Fatal("identical query should not issue a request")
	}

	// Page 0 normalizes to page 1, which equals the accepted query.
	q0 := q
	q0.Page = 0
	if _, ok := c.OnQueryChange(model.KindSent, q0); ok {
		t.Fatal("query equal after normalization should not issue a request")
	}

	q.Page = 2
	if _, ok := c.OnQueryChange(model.KindSent, q); !ok {
		t.Fatal("changed query should issue a request")
	}
}

func TestTabsAreIndependent(t *testing.T) {
	c := NewCoordinator()
	q := baseQuery()
	sent, _ := c.OnQueryChange(model.KindSent, q)

	rq := q
	rq.Kind = model.KindResponds
	resp, ok := c.OnQueryChange(model.KindResponds, rq)
	if !ok {
		t.Fatal("responds tab should issue its own request")
	}

	if got := c.Apply(Response{Tab: model.KindSent, Seq: sent.Seq, Query: sent.Query, Result: resultWith(1)}); got != Published {
		t.Fatalf("sent Apply = %s, want published", got)
	}
	if !c.State(model.KindResponds).Loading {
		t.Error("responds tab should still be loading")
	}
	if got := c.Apply(Response{Tab: model.KindResponds, Seq: resp.Seq, Query: resp.Query, Result: resultWith(2)}); got != Published {
		t.Fatalf("responds Apply = %s, want published", got)
	}
}

func TestOutOfOrderResponsesKeepLatest(t *testing.T) {
	c := NewCoordinator()
	q := baseQuery()

	var reqs []Request
	for page := 1; page <= 5; page++ {
		q.Page = page
		r, ok := c.OnQueryChange(model.KindSent, q)
		if !ok {
			t.Fatalf("page %d should issue a request", page)
		}
		reqs = append(reqs, r)
	}

	last := reqs[len(reqs)-1]
	if got := c.Apply(Response{Tab: last.Tab, Seq: last.Seq, Query: last.Query, Result: resultWith(5)}); got != Published {
		t.Fatalf("latest Apply = %s, want published", got)
	}

	// Earlier responses land afterwards, in reverse order.
	for i := len(reqs) - 2; i >= 0; i-- {
		r := reqs[i]
		if got := c.Apply(Response{Tab: r.Tab, Seq: r.Seq, Query: r.Query, Result: resultWith(i)}); got != Stale {
			t.Errorf("response %d: Apply = %s, want stale", i, got)
		}
	}

	st := c.State(model.KindSent)
	if st.Query.Page != 5 {
		t.Errorf("query page = %d, want 5", st.Query.Page)
	}
	if st.Result.Stats.Overall.Sent != 5 {
		t.Errorf("published sent = %d, want 5", st.Result.Stats.Overall.Sent)
	}
}

func TestFailureKeepsPreviousData(t *testing.T) {
	c := NewCoordinator()
	f := &fakeFetcher{res: resultWith(7)}
	q := baseQuery()

	r, _ := c.OnQueryChange(model.KindSent, q)
	if got := c.Apply(r.Do(context.Background(), f)); got != Published {
		t.Fatalf("Apply = %s, want published", got)
	}

	boom := errors.New("boom")
	f.res, f.err = nil, boom
	q.Page = 2
	r, _ = c.OnQueryChange(model.KindSent, q)
	if got := c.Apply(r.Do(context.Background(), f)); got != Failed {
		t.Fatalf("Apply = %s, want failed", got)
	}

	st := c.State(model.KindSent)
	if !errors.Is(st.Err, boom) {
		t.Errorf("Err = %v, want boom", st.Err)
	}
	if st.Loading {
		t.Error("Loading should be cleared after failure")
	}
	if st.Result == nil || st.Result.Stats.Overall.Sent != 7 {
		t.Errorf("previous result not kept: %+v", st.Result)
	}

	// Refresh retries the same query.
	f.res, f.err = resultWith(8), nil
	r, ok := c.Refresh(model.KindSent)
	if !ok {
		t.Fatal("Refresh should issue a request")
	}
	if r.Query.Page != 2 {
		t.Errorf("Refresh page = %d, want 2", r.Query.Page)
	}
	if got := c.Apply(r.Do(context.Background(), f)); got != Published {
		t.Fatalf("Apply after refresh = %s, want published", got)
	}
	if c.State(model.KindSent).Err != nil {
		t.Error("Err should be cleared after a successful refresh")
	}
	if len(f.calls) != 3 {
		t.Errorf("fetch calls = %d, want 3", len(f.calls))
	}
}

func TestNilResultFails(t *testing.T) {
	c := NewCoordinator()
	r, _ := c.OnQueryChange(model.KindSent, baseQuery())
	if got := c.Apply(Response{Tab: r.Tab, Seq: r.Seq, Query: r.Query}); got != Failed {
		t.Fatalf("Apply = %s, want failed", got)
	}
	if c.State(model.KindSent).Err == nil {
		t.Error("expected an error for an empty result")
	}
}

func TestCloseDropsLateResponses(t *testing.T) {
	c := NewCoordinator()
	r, _ := c.OnQueryChange(model.KindSent, baseQuery())
	c.Close()

	if got := c.Apply(Response{Tab: r.Tab, Seq: r.Seq, Query: r.Query, Result: resultWith(1)}); got != Stale {
		t.Fatalf("Apply after Close = %s, want stale", got)
	}
	if c.State(model.KindSent).Result != nil {
		t.Error("closed coordinator should not publish")
	}
	if _, ok := c.OnQueryChange(model.KindSent, baseQuery()); ok {
		t.Error("closed coordinator should not issue requests")
	}
	if _, ok := c.Refresh(model.KindSent); ok {
		t.Error("closed coordinator should not refresh")
	}
}

func pages(ps ...int) []PageItem {
	items := make([]PageItem, 0, len(ps))
	for _, p := range ps {
		if p == 0 {
			items = append(items, PageItem{Ellipsis: true})
			continue
		}
		items = append(items, PageItem{Page: p})
	}
	return items
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name    string
		policy  WindowPolicy
		current int
		total   int
		want    []PageItem
	}{
		{"full", WindowFull, 3, 4, pages(1, 2, 3, 4)},
		{"full single", WindowFull, 1, 1, pages(1)},
		{"no pages", WindowFull, 1, 0, nil},
		{"truncated short", WindowTruncated, 2, 5, pages(1, 2, 3, 4, 5)},
		{"truncated first", WindowTruncated, 1, 20, pages(1, 2, 3, 4, 5, 6, 0, 19, 20)},
		{"truncated last", WindowTruncated, 20, 20, pages(1, 2, 3, 4, 5, 6, 0, 19, 20)},
		{"truncated seven", WindowTruncated, 1, 7, pages(1, 2, 3, 4, 5, 6, 7)},
		{"truncated eight", WindowTruncated, 1, 8, pages(1, 2, 3, 4, 5, 6, 7, 8)},
		{"truncated nine", WindowTruncated, 1, 9, pages(1, 2, 3, 4, 5, 6, 0, 8, 9)},
		{"current in gap", WindowTruncated, 10, 20, pages(1, 2, 3, 4, 5, 6, 0, 10, 0, 19, 20)},
		{"current after head", WindowTruncated, 7, 20, pages(1, 2, 3, 4, 5, 6, 7, 0, 19, 20)},
		{"current before tail", WindowTruncated, 18, 20, pages(1, 2, 3, 4, 5, 6, 0, 18, 19, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window(tt.policy, tt.current, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Window(%s, %d, %d) = %v, want %v", tt.policy, tt.current, tt.total, got, tt.want)
			}
		})
	}
}

func TestNav(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		total      int
		size       model.PageSize
		prev, next bool
	}{
		{"first of many", 1, 4, model.DefaultPageSize, false, true},
		{"middle", 3, 4, model.DefaultPageSize, true, true},
		{"last", 4, 4, model.DefaultPageSize, true, false},
		{"single page", 1, 1, model.DefaultPageSize, false, false},
		{"all", 1, 1, model.PageSizeAll, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := Nav(tt.current, tt.total, tt.size)
			if prev != tt.prev || next != tt.next {
				t.Errorf("Nav = (%v, %v), want (%v, %v)", prev, next, tt.prev, tt.next)
			}
		})
	}
}

func TestFilterResponses(t *testing.T) {
	labels := []string{
		"Positive Responds", "Not Responds Yet", "Unsubscribe", "Positive Responds", "Not Responds Yet",
		"Not Responds Yet", "Unsubscribe", "Positive Responds", "Not Responds Yet", "Unsubscribe",
	}
	var records []model.Record
	for i, l := range labels {
		records = append(records, model.ResponseRecord{
			ReceiverEmail: string(rune('a'+i)) + "@example.com",
			ResponseLabel: l,
		})
	}

	got := FilterResponses(records, "Positive Responds")
	want := []string{"a@example.com", "d@example.com", "h@example.com"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Receiver() != want[i] {
			t.Errorf("record %d = %s, want %s", i, r.Receiver(), want[i])
		}
	}

	if all := FilterResponses(records, AllCategories); len(all) != len(records) {
		t.Errorf("All returned %d records, want %d", len(all), len(records))
	}
	if all := FilterResponses(records, ""); len(all) != len(records) {
		t.Errorf("empty category returned %d records, want %d", len(all), len(records))
	}
	if none := FilterResponses(records, "Bounced"); len(none) != 0 {
		t.Errorf("unknown category returned %d records", len(none))
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseWindowPolicy("truncated"); err != nil || p != WindowTruncated {
		t.Errorf("ParseWindowPolicy(truncated) = %v, %v", p, err)
	}
	if _, err := ParseWindowPolicy("compact"); err == nil {
		t.Error("expected error for unknown pagination style")
	}
	if p, err := ParseFilterPolicy("server"); err != nil || p != FilterServerSide {
		t.Errorf("ParseFilterPolicy(server) = %v, %v", p, err)
	}
	if _, err := ParseFilterPolicy("both"); err == nil {
		t.Error("expected error for unknown filter mode")
	}
}
