package dashboard

import (
	"errors"
	"reflect"
	"testing"

	"campaignterm/internal/model"
	"campaignterm/internal/report"
)

var today = model.Date{Year: 2026, Month: 2, Day: 16}

func newDashboard(t *testing.T, opts Options) (*Dashboard, *report.Coordinator) {
	t.Helper()
	if opts.Today.IsZero() {
		opts.Today = today
	}
	c := report.NewCoordinator()
	return New(c, opts), c
}

// publish syncs the active tab and applies res as its response.
func publish(t *testing.T, d *Dashboard, c *report.Coordinator, res *model.ReportResult) {
	t.Helper()
	req, ok := d.Sync()
	if !ok {
		t.Fatal("Sync issued no request")
	}
	if got := c.Apply(report.Response{Tab: req.Tab, Seq: req.Seq, Query: req.Query, Result: res}); got != report.Published {
		t.Fatalf("Apply = %s, want published", got)
	}
}

func pagesResult(kind model.ReportKind, total int) *model.ReportResult {
	return &model.ReportResult{
		Kind:       kind,
		Pagination: model.Pagination{Page: 1, PerPage: 50, TotalPages: total, TotalRecords: total * 50},
	}
}

func TestDefaults(t *testing.T) {
	d, _ := newDashboard(t, Options{})
	q := d.Query()
	want := model.ReportQuery{
		Kind:     model.KindSent,
		Campaign: model.CampaignMPLY,
		DateFrom: today,
		DateTo:   today,
		Page:     1,
		PageSize: model.DefaultPageSize,
	}
	if q != want {
		t.Fatalf("Query = %+v, want %+v", q, want)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	d, _ := newDashboard(t, Options{})
	if _, ok := d.Sync(); !ok {
		t.Fatal("first Sync should issue a request")
	}
	if _, ok := d.Sync(); ok {
		t.Fatal("second Sync without changes should not issue a request")
	}
	if err := d.SetCampaign(model.CampaignGOLY); err != nil {
		t.Fatalf("SetCampaign: %v", err)
	}
	req, ok := d.Sync()
	if !ok || req.Query.Campaign != model.CampaignGOLY {
		t.Fatalf("Sync after campaign change = %+v, %v", req, ok)
	}
}

func TestTabLocalState(t *testing.T) {
	d, c := newDashboard(t, Options{})
	publish(t, d, c, pagesResult(model.KindSent, 5))
	d.SetPage(3)
	d.SetPageSize(model.PageSizeOf(100))

	d.SwitchTab(model.KindResponds)
	q := d.Query()
	if q.Kind != model.KindResponds || q.Page != 1 || q.PageSize != model.DefaultPageSize {
		t.Fatalf("responds query = %+v", q)
	}
	if err := d.SetCampaign(model.CampaignGOLY); err != nil {
		t.Fatalf("SetCampaign: %v", err)
	}

	d.SwitchTab(model.KindSent)
	q = d.Query()
	if q.PageSize != model.PageSizeOf(100) {
		t.Errorf("sent page size = %s, want 100", q.PageSize)
	}
	if q.Page != 1 {
		t.Errorf("switching tabs should reset page, got %d", q.Page)
	}
	if q.Campaign != model.CampaignGOLY {
		t.Errorf("campaign should be shared, got %s", q.Campaign)
	}
}

func TestSetDateRange(t *testing.T) {
	d, _ := newDashboard(t, Options{})
	from := model.Date{Year: 2026, Month: 2, Day: 1}
	if err := d.SetDateRange(from, today); err != nil {
		t.Fatalf("SetDateRange: %v", err)
	}
	if err := d.SetDateRange(today, from); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("SetDateRange reversed = %v, want ErrInvalidDateRange", err)
	}
	gotFrom, gotTo := d.DateRange()
	if gotFrom != from || gotTo != today {
		t.Errorf("rejected range changed state: %s..%s", gotFrom, gotTo)
	}
	if err := d.SetDateRange(today, today); err != nil {
		t.Errorf("single-day range rejected: %v", err)
	}
}

func TestPaging(t *testing.T) {
	d, c := newDashboard(t, Options{WindowPolicy: report.WindowFull})
	publish(t, d, c, pagesResult(model.KindSent, 4))

	if prev, next := d.Nav(); prev || !next {
		t.Fatalf("Nav on page 1 = %v, %v", prev, next)
	}
	if d.PrevPage() {
		t.Error("PrevPage on page 1 should be refused")
	}
	d.SetPage(3)
	if !reflect.DeepEqual(d.PageItems(), []report.PageItem{{Page: 1}, {Page: 2}, {Page: 3}, {Page: 4}}) {
		t.Errorf("PageItems = %v", d.PageItems())
	}
	if !d.NextPage() || d.Page() != 4 {
		t.Fatalf("NextPage to 4 failed, page %d", d.Page())
	}
	if d.NextPage() {
		t.Error("NextPage on last page should be refused")
	}
	d.SetPage(99)
	if d.Page() != 4 {
		t.Errorf("SetPage should clamp, got %d", d.Page())
	}

	d.SetPageSize(model.PageSizeAll)
	q := d.Query()
	if q.Page != 1 || !q.PageSize.IsAll() {
		t.Fatalf("All query = %+v", q)
	}
	if prev, next := d.Nav(); prev || next {
		t.Errorf("Nav with All = %v, %v; want both disabled", prev, next)
	}
}

func responds(labels ...string) *model.ReportResult {
	res := &model.ReportResult{Kind: model.KindResponds, Pagination: model.Pagination{TotalPages: 1, TotalRecords: len(labels)}}
	for _, l := range labels {
		res.Records = append(res.Records, model.ResponseRecord{ResponseLabel: l})
	}
	return res
}

func TestRespondsFilterClientSide(t *testing.T) {
	d, c := newDashboard(t, Options{Variant: VariantWarmup, FilterPolicy: report.FilterClientSide})
	d.SwitchTab(model.KindResponds)
	publish(t, d, c, responds("Positive Responds", "Unsubscribe", "Positive Responds"))

	d.SetRespondsCategory("Positive Responds")
	if _, ok := d.Sync(); ok {
		t.Error("client-side filtering should not issue a request")
	}
	if n := len(d.Rows()); n != 2 {
		t.Errorf("Rows = %d, want 2", n)
	}
	d.SetRespondsCategory("")
	if n := len(d.Rows()); n != 3 {
		t.Errorf("Rows after clearing = %d, want 3", n)
	}
}

func TestRespondsFilterServerSide(t *testing.T) {
	d, c := newDashboard(t, Options{Variant: VariantWarmup, FilterPolicy: report.FilterServerSide})
	d.SwitchTab(model.KindResponds)
	publish(t, d, c, responds("Positive Responds", "Unsubscribe"))

	d.SetRespondsCategory("Unsubscribe")
	req, ok := d.Sync()
	if !ok {
		t.Fatal("server-side filtering should issue a request")
	}
	if req.Query.RespondsCategory != "Unsubscribe" {
		t.Errorf("RespondsCategory = %q", req.Query.RespondsCategory)
	}
	// Published rows are not filtered again on the client.
	if n := len(d.Rows()); n != 2 {
		t.Errorf("Rows = %d, want 2", n)
	}
}

func TestSummaryVariantIgnoresCategory(t *testing.T) {
	d, _ := newDashboard(t, Options{Variant: VariantSummary, FilterPolicy: report.FilterServerSide})
	d.SwitchTab(model.KindResponds)
	d.SetRespondsCategory("Unsubscribe")
	if q := d.Query(); q.RespondsCategory != "" {
		t.Errorf("summary variant sent category %q", q.RespondsCategory)
	}
}

func TestSummaryStats(t *testing.T) {
	d, c := newDashboard(t, Options{Variant: VariantWarmup})
	if _, ok := d.Summary(); ok {
		t.Fatal("no stats before the first result")
	}
	res := pagesResult(model.KindSent, 1)
	res.Stats = model.MonthlyStats{ByEmailType: map[model.EmailType]model.MonthlySummary{
		model.EmailTypeRegular:   {Sent: 10},
		model.EmailTypeFollowUp1: {Sent: 4},
	}}
	publish(t, d, c, res)

	if s, _ := d.Summary(); s.Sent != 10 {
		t.Errorf("Regular sent = %d, want 10", s.Sent)
	}
	if err := d.SetStatsEmailType(model.EmailTypeFollowUp1); err != nil {
		t.Fatalf("SetStatsEmailType: %v", err)
	}
	if s, _ := d.Summary(); s.Sent != 4 {
		t.Errorf("Follow up 1 sent = %d, want 4", s.Sent)
	}
	if err := d.SetStatsEmailType("Follow up 2"); err == nil {
		t.Error("expected error for unknown email type")
	}
}

func TestSummaryFollowsActiveTab(t *testing.T) {
	d, c := newDashboard(t, Options{})
	sent := pagesResult(model.KindSent, 1)
	sent.Stats = model.MonthlyStats{Overall: &model.MonthlySummary{Sent: 111}}
	publish(t, d, c, sent)

	d.SwitchTab(model.KindResponds)
	if err := d.SetDateRange(model.Date{Year: 2026, Month: 1, Day: 1}, today); err != nil {
		t.Fatalf("SetDateRange: %v", err)
	}
	responds := pagesResult(model.KindResponds, 1)
	responds.Stats = model.MonthlyStats{Overall: &model.MonthlySummary{Sent: 999}}
	publish(t, d, c, responds)
	if s, _ := d.Summary(); s.Sent != 999 {
		t.Errorf("responds tab sent = %d, want 999", s.Sent)
	}

	d.SwitchTab(model.KindSent)
	if _, ok := d.Sync(); ok {
		t.Fatal("unchanged sent query should not issue a request")
	}
	s, ok := d.Summary()
	if !ok || s.Sent != 111 {
		t.Errorf("sent tab summary = %+v, %v; want Sent=111", s, ok)
	}
}

func TestSetPageBeforeFirstResult(t *testing.T) {
	d, c := newDashboard(t, Options{})
	d.SetPage(5)
	if got := d.Query().Page; got != 5 {
		t.Fatalf("query page = %d, want 5", got)
	}

	res := pagesResult(model.KindSent, 3)
	res.Pagination.Page = 5
	publish(t, d, c, res)
	d.SetPage(9)
	if got := d.Page(); got != 3 {
		t.Errorf("page after publish = %d, want clamped to 3", got)
	}
	d.SetPage(0)
	if got := d.Page(); got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
}

func TestCells(t *testing.T) {
	body := "<p>Sounds good</p><p>Thanks</p>"
	rec := model.ResponseRecord{
		SenderEmail:   "a@x.com",
		ReceiverEmail: "b@y.com",
		ResponseLabel: "Positive Responds",
		Body:          &body,
		UpdatedAt:     "Mon, 16 Feb 2026 15:35:52 GMT",
	}

	summary, _ := newDashboard(t, Options{Variant: VariantSummary})
	got := summary.Cells(rec)
	want := []string{"a@x.com", "b@y.com", "Positive Responds", "N/A", "Sounds good Thanks", "Mon, 16 Feb 2026 3:35 PM IST"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("summary Cells = %q, want %q", got, want)
	}
	if len(summary.Columns(model.KindResponds)) != len(got) {
		t.Error("columns and cells differ in length")
	}

	warmup, _ := newDashboard(t, Options{Variant: VariantWarmup})
	sent := warmup.Cells(model.SentRecord{SenderEmail: "a", ReceiverEmail: "b", SentAt: "Mon, 16 Feb 2026 09:05:00 GMT"})
	if sent[2] != "Feb 16, 2026 @ 9:05 AM IST" {
		t.Errorf("warmup sent time = %q", sent[2])
	}
}

func TestLoadedMessage(t *testing.T) {
	if got := LoadedMessage(0); got != "No records found for the selected filters" {
		t.Errorf("LoadedMessage(0) = %q", got)
	}
	if got := LoadedMessage(12); got != "Successfully loaded 12 records" {
		t.Errorf("LoadedMessage(12) = %q", got)
	}
}
