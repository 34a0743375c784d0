// Package dashboard holds the report dashboard's selections and turns them
// into report queries. Both dashboard variants share this controller; the
// variant only changes labels, timestamp style and which filters exist.
package dashboard

import (
	"errors"
	"fmt"

	"campaignterm/internal/model"
	"campaignterm/internal/report"
	"campaignterm/internal/util"
)

// Variant selects the dashboard flavour.
type Variant int

const (
	// VariantSummary is the campaign summary dashboard.
	VariantSummary Variant = iota
	// VariantWarmup adds per-email-type stats and the response category filter.
	VariantWarmup
)

func ParseVariant(s string) (Variant, error) {
	switch s {
	case "summary":
		return VariantSummary, nil
	case "warmup":
		return VariantWarmup, nil
	}
	return 0, fmt.Errorf("unknown dashboard variant %q", s)
}

func (v Variant) String() string {
	if v == VariantWarmup {
		return "warmup"
	}
	return "summary"
}

// ErrInvalidDateRange rejects a range whose start is after its end.
var ErrInvalidDateRange = errors.New("start date must not be after end date")

// DefaultCampaign is selected when no preference is stored.
const DefaultCampaign = model.CampaignMPLY

type Options struct {
	Variant      Variant
	FilterPolicy report.FilterPolicy
	WindowPolicy report.WindowPolicy
	// Today seeds both tabs' date ranges.
	Today model.Date
	// ZoneLabel is appended to formatted timestamps.
	ZoneLabel string
}

type tabState struct {
	from, to model.Date
	page     int
	pageSize model.PageSize
	category string
}

// Dashboard is owned by the event loop and is not safe for concurrent use.
type Dashboard struct {
	opts      Options
	coord     *report.Coordinator
	active    model.ReportKind
	campaign  model.Campaign
	statsType model.EmailType
	tabs      map[model.ReportKind]*tabState
}

func New(coord *report.Coordinator, opts Options) *Dashboard {
	if opts.ZoneLabel == "" {
		opts.ZoneLabel = util.DefaultZoneLabel
	}
	d := &Dashboard{
		opts:      opts,
		coord:     coord,
		active:    model.KindSent,
		campaign:  DefaultCampaign,
		statsType: model.EmailTypeRegular,
		tabs:      make(map[model.ReportKind]*tabState),
	}
	for _, k := range []model.ReportKind{model.KindSent, model.KindResponds} {
		d.tabs[k] = &tabState{
			from:     opts.Today,
			to:       opts.Today,
			page:     1,
			pageSize: model.DefaultPageSize,
			category: report.AllCategories,
		}
	}
	return d
}

func (d *Dashboard) Options() Options                { return d.opts }
func (d *Dashboard) Active() model.ReportKind        { return d.active }
func (d *Dashboard) Campaign() model.Campaign        { return d.campaign }
func (d *Dashboard) StatsEmailType() model.EmailType { return d.statsType }

func (d *Dashboard) cur() *tabState { return d.tabs[d.active] }

// SwitchTab activates k and resets its page to 1.
func (d *Dashboard) SwitchTab(k model.ReportKind) {
	d.active = k
	d.cur().page = 1
}

// SetCampaign changes the campaign for both tabs.
func (d *Dashboard) SetCampaign(c model.Campaign) error {
	if !c.Valid() {
		return fmt.Errorf("unknown campaign %q", c)
	}
	if c != d.campaign {
		d.campaign = c
		for _, t := range d.tabs {
			t.page = 1
		}
	}
	return nil
}

// SetDateRange sets the active tab's date range. A range with from after to
// is rejected and leaves the state unchanged.
func (d *Dashboard) SetDateRange(from, to model.Date) error {
	if to.Before(from) {
		return ErrInvalidDateRange
	}
	t := d.cur()
	if t.from != from || t.to != to {
		t.from, t.to = from, to
		t.page = 1
	}
	return nil
}

func (d *Dashboard) DateRange() (from, to model.Date) {
	t := d.cur()
	return t.from, t.to
}

// SetPage moves to page p. Once the active tab has a published result the
// page is clamped to its page count.
func (d *Dashboard) SetPage(p int) {
	t := d.cur()
	if t.pageSize.IsAll() {
		t.page = 1
		return
	}
	if d.State().Result != nil {
		p = min(p, d.TotalPages())
	}
	t.page = max(p, 1)
}

func (d *Dashboard) NextPage() bool {
	if _, next := d.Nav(); !next {
		return false
	}
	d.SetPage(d.cur().page + 1)
	return true
}

func (d *Dashboard) PrevPage() bool {
	if prev, _ := d.Nav(); !prev {
		return false
	}
	d.SetPage(d.cur().page - 1)
	return true
}

func (d *Dashboard) Page() int { return d.cur().page }

// SetPageSize changes the active tab's page size and resets its page to 1.
func (d *Dashboard) SetPageSize(s model.PageSize) {
	t := d.cur()
	t.pageSize = s
	t.page = 1
}

func (d *Dashboard) PageSize() model.PageSize { return d.cur().pageSize }

// HasRespondsFilter reports whether the response category filter is shown.
func (d *Dashboard) HasRespondsFilter() bool { return d.opts.Variant == VariantWarmup }

// SetRespondsCategory selects the response category. Server-side filtering
// restarts at page 1 since it changes the result set.
func (d *Dashboard) SetRespondsCategory(category string) {
	if category == "" {
		category = report.AllCategories
	}
	t := d.tabs[model.KindResponds]
	if t.category == category {
		return
	}
	t.category = category
	if d.opts.FilterPolicy == report.FilterServerSide {
		t.page = 1
	}
}

func (d *Dashboard) RespondsCategory() string { return d.tabs[model.KindResponds].category }

// SetStatsEmailType picks which per-type stats the cards show.
func (d *Dashboard) SetStatsEmailType(t model.EmailType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown email type %q", t)
	}
	d.statsType = t
	return nil
}

// Query returns the report query for the active tab.
func (d *Dashboard) Query() model.ReportQuery {
	return d.queryFor(d.active)
}

func (d *Dashboard) queryFor(k model.ReportKind) model.ReportQuery {
	t := d.tabs[k]
	q := model.ReportQuery{
		Kind:     k,
		Campaign: d.campaign,
		DateFrom: t.from,
		DateTo:   t.to,
		Page:     t.page,
		PageSize: t.pageSize,
	}
	if k == model.KindResponds && d.HasRespondsFilter() &&
		d.opts.FilterPolicy == report.FilterServerSide && t.category != report.AllCategories {
		q.RespondsCategory = t.category
	}
	return report.Normalize(q)
}

// Sync hands the active tab's query to the coordinator and returns the
// request to run, if any.
func (d *Dashboard) Sync() (report.Request, bool) {
	return d.coord.OnQueryChange(d.active, d.Query())
}

// State is the coordinator's view of the active tab.
func (d *Dashboard) State() report.TabState {
	return d.coord.State(d.active)
}

// Rows returns the active tab's published records after the response filter.
func (d *Dashboard) Rows() []model.Record {
	st := d.State()
	if st.Result == nil {
		return nil
	}
	recs := st.Result.Records
	if d.active == model.KindResponds && d.HasRespondsFilter() && d.opts.FilterPolicy == report.FilterClientSide {
		recs = report.FilterResponses(recs, d.RespondsCategory())
	}
	return recs
}

// TotalPages is the published page count of the active tab, at least 1.
func (d *Dashboard) TotalPages() int {
	if st := d.State(); st.Result != nil && st.Result.Pagination.TotalPages > 0 {
		return st.Result.Pagination.TotalPages
	}
	return 1
}

// TotalRecords is the published record count of the active tab.
func (d *Dashboard) TotalRecords() int {
	if st := d.State(); st.Result != nil {
		return st.Result.Pagination.TotalRecords
	}
	return 0
}

func (d *Dashboard) PageItems() []report.PageItem {
	return report.Window(d.opts.WindowPolicy, d.cur().page, d.TotalPages())
}

func (d *Dashboard) Nav() (prev, next bool) {
	return report.Nav(d.cur().page, d.TotalPages(), d.cur().pageSize)
}

// Summary returns the stats shown on the cards, taken from the active tab's
// published result so they match its campaign and date window.
func (d *Dashboard) Summary() (model.MonthlySummary, bool) {
	st := d.State()
	if st.Result == nil {
		return model.MonthlySummary{}, false
	}
	return st.Result.Stats.For(d.statsType), true
}

// Columns are the table headers for kind.
func (d *Dashboard) Columns(k model.ReportKind) []string {
	if d.opts.Variant == VariantWarmup {
		if k == model.KindResponds {
			return []string{"Sender", "Recipient", "Response", "Response Subject", "Response Body", "Response Date"}
		}
		return []string{"Sender", "Recipient", "Sent On"}
	}
	if k == model.KindResponds {
		return []string{"Sender Email", "Receiver Email", "Responds", "Responds Subject", "Responds Body", "Responds Date"}
	}
	return []string{"Sender Mail", "Receiver Email", "Sent At"}
}

// FormatTime renders a record timestamp in the variant's style.
func (d *Dashboard) FormatTime(ts string) string {
	style := util.StyleSummary
	if d.opts.Variant == VariantWarmup {
		style = util.StyleWarmup
	}
	return util.FormatTimestamp(ts, style, d.opts.ZoneLabel)
}

// Cells renders r as table cells matching Columns.
func (d *Dashboard) Cells(r model.Record) []string {
	switch rec := r.(type) {
	case model.ResponseRecord:
		return []string{
			rec.SenderEmail,
			rec.ReceiverEmail,
			rec.ResponseLabel,
			deref(rec.Subject),
			util.CollapseWhitespace(util.StripHTMLTags(deref(rec.Body))),
			d.FormatTime(rec.UpdatedAt),
		}
	case model.SentRecord:
		return []string{rec.SenderEmail, rec.ReceiverEmail, d.FormatTime(rec.SentAt)}
	}
	return []string{r.Sender(), r.Receiver(), d.FormatTime(r.Timestamp())}
}

// LoadedMessage is the notice shown after a result is published.
func LoadedMessage(n int) string {
	if n == 0 {
		return "No records found for the selected filters"
	}
	return fmt.Sprintf("Successfully loaded %d records", n)
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
