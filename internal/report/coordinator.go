package report

import (
	"context"
	"errors"

	"campaignterm/internal/model"

	"github.com/rs/zerolog/log"
)

// Fetcher performs one report request.
type Fetcher interface {
	FetchReport(ctx context.Context, q model.ReportQuery) (*model.ReportResult, error)
}

var errEmptyResult = errors.New("empty report result")

// Request is a report fetch the caller must run, normally off the event loop.
type Request struct {
	Tab   model.ReportKind
	Seq   uint64
	Query model.ReportQuery
}

// Response carries the result of Request.Do back to the coordinator.
type Response struct {
	Tab    model.ReportKind
	Seq    uint64
	Query  model.ReportQuery
	Result *model.ReportResult
	Err    error
}

// Do runs the request. It touches no coordinator state.
func (r Request) Do(ctx context.Context, f Fetcher) Response {
	res, err := f.FetchReport(ctx, r.Query)
	return Response{Tab: r.Tab, Seq: r.Seq, Query: r.Query, Result: res, Err: err}
}

// Outcome says what Apply did with a response.
type Outcome int

const (
	// Published: the result is now the tab's data.
	Published Outcome = iota
	// Failed: the current request failed; previous data is kept.
	Failed
	// Stale: a newer query superseded the response, or the coordinator was closed.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Published:
		return "published"
	case Failed:
		return "failed"
	}
	return "stale"
}

// TabState is the published view of one tab.
type TabState struct {
	Query    model.ReportQuery
	HasQuery bool
	Result   *model.ReportResult
	Loading  bool
	Err      error
}

type tab struct {
	TabState
	inflight uint64
}

// Coordinator owns the per-tab query/result pairs. It is not safe for
// concurrent use: all methods except Request.Do belong on the event loop.
type Coordinator struct {
	seq      uint64
	tabs     map[model.ReportKind]*tab
	closed   bool
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		tabs: map[model.ReportKind]*tab{
			model.KindSent:     {},
			model.KindResponds: {},
		},
	}
}

func (c *Coordinator) tab(k model.ReportKind) *tab {
	t, ok := c.tabs[k]
	if !ok {
		t = &tab{}
		c.tabs[k] = t
	}
	return t
}

// OnQueryChange accepts q as the tab's query. It returns the request to issue,
// or false when q equals the last accepted query (or the coordinator is closed).
func (c *Coordinator) OnQueryChange(k model.ReportKind, q model.ReportQuery) (Request, bool) {
	if c.closed {
		return Request{}, false
	}
	q = Normalize(q)
	t := c.tab(k)
	if t.HasQuery && t.Query == q {
		return Request{}, false
	}
	return c.issue(k, t, q), true
}

// Refresh re-issues the tab's last accepted query, e.g. after a failure.
func (c *Coordinator) Refresh(k model.ReportKind) (Request, bool) {
	t := c.tab(k)
	if c.closed || !t.HasQuery {
		return Request{}, false
	}
	return c.issue(k, t, t.Query), true
}

func (c *Coordinator) issue(k model.ReportKind, t *tab, q model.ReportQuery) Request {
	c.seq++
	t.Query = q
	t.HasQuery = true
	t.Loading = true
	t.inflight = c.seq

	log.Debug().
		Str("tab", k.String()).
		Uint64("seq", c.seq).
		Int("page", q.Page).
		Str("page_size", q.PageSize.String()).
		Msg("Issuing report request")

	return Request{Tab: k, Seq: c.seq, Query: q}
}

// Apply publishes resp if it answers the tab's in-flight request. Any other
// response is discarded without touching state.
func (c *Coordinator) Apply(resp Response) Outcome {
	t, ok := c.tabs[resp.Tab]
	if c.closed || !ok || t.inflight == 0 || resp.Seq != t.inflight {
		log.Debug().
			Str("tab", resp.Tab.String()).
			Uint64("seq", resp.Seq).
			Msg("Discarding stale report response")
		return Stale
	}
	t.inflight = 0
	t.Loading = false

	if resp.Err != nil {
		t.Err = resp.Err
		log.Error().Err(resp.Err).Str("tab", resp.Tab.String()).Msg("Report request failed")
		return Failed
	}
	if resp.Result == nil {
		t.Err = errEmptyResult
		return Failed
	}

	t.Err = nil
	t.Result = resp.Result
	return Published
}

// State returns a copy of the tab's published view.
func (c *Coordinator) State(k model.ReportKind) TabState {
	return c.tab(k).TabState
}

// Close invalidates every in-flight request. Later responses are dropped.
func (c *Coordinator) Close() {
	c.closed = true
	for _, t := range c.tabs {
		t.inflight = 0
		t.Loading = false
	}
}
