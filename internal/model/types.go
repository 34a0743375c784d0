package model

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// ReportKind selects one of the two report tabs.
type ReportKind int

const (
	KindSent ReportKind = iota
	KindResponds
)

// Wire returns the value sent as "type" in report requests.
func (k ReportKind) Wire() string {
	if k == KindResponds {
		return "responds"
	}
	return "sent"
}

func (k ReportKind) String() string {
	if k == KindResponds {
		return "Responds"
	}
	return "Sent"
}

// Campaign identifies the mail-sending configuration a report or upload applies to.
type Campaign string

const (
	CampaignGOLY Campaign = "GOLY"
	CampaignMPLY Campaign = "MPLY"
)

// Campaigns lists the selectable campaigns in display order.
var Campaigns = []Campaign{CampaignGOLY, CampaignMPLY}

func (c Campaign) Valid() bool {
	return c == CampaignGOLY || c == CampaignMPLY
}

// EmailType sub-classifies a template within a campaign.
type EmailType string

const (
	EmailTypeRegular   EmailType = "Regular"
	EmailTypeFollowUp1 EmailType = "Follow up 1"
)

var EmailTypes = []EmailType{EmailTypeRegular, EmailTypeFollowUp1}

func (t EmailType) Valid() bool {
	return t == EmailTypeRegular || t == EmailTypeFollowUp1
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

func (d Date) IsZero() bool { return d == Date{} }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// AllPerPage is the per_page value sent when every record is requested.
const AllPerPage = 100000

// PageSize is either a positive row count or All.
type PageSize struct {
	n   int
	all bool
}

// PageSizeAll requests every record on a single page.
var PageSizeAll = PageSize{all: true}

// DefaultPageSize is the page size a fresh tab starts with.
var DefaultPageSize = PageSizeOf(50)

// PageSizes are the selectable sizes, in order.
var PageSizes = []PageSize{PageSizeOf(10), PageSizeOf(20), PageSizeOf(50), PageSizeOf(100), PageSizeOf(500), PageSizeAll}

// PageSizeOf returns a numeric page size. Non-positive n falls back to the default.
func PageSizeOf(n int) PageSize {
	if n <= 0 {
		return PageSize{n: 50}
	}
	return PageSize{n: n}
}

// ParsePageSize accepts a positive integer or "All".
func ParsePageSize(s string) (PageSize, error) {
	if s == "All" || s == "all" {
		return PageSizeAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return PageSize{}, fmt.Errorf("invalid page size %q", s)
	}
	return PageSize{n: n}, nil
}

func (p PageSize) IsAll() bool { return p.all }

// PerPage is the wire translation of the page size.
func (p PageSize) PerPage() int {
	if p.all {
		return AllPerPage
	}
	if p.n <= 0 {
		return DefaultPageSize.n
	}
	return p.n
}

func (p PageSize) String() string {
	if p.all {
		return "All"
	}
	return strconv.Itoa(p.PerPage())
}

// ReportQuery describes one report request. Values are compared with ==.
type ReportQuery struct {
	Kind             ReportKind
	Campaign         Campaign
	DateFrom         Date
	DateTo           Date
	Page             int
	PageSize         PageSize
	RespondsCategory string // empty: not sent to the server
}

// Record is one row of a report: a SentRecord or a ResponseRecord.
type Record interface {
	Sender() string
	Receiver() string
	Timestamp() string
	record()
}

type SentRecord struct {
	SenderEmail       string `json:"sender_email"`
	ReceiverEmail     string `json:"receiver_email"`
	SentAt            string `json:"sent_at"`
	EmailCampaignType string `json:"email_campaign_type,omitempty"`
}

func (r SentRecord) Sender() string    { return r.SenderEmail }
func (r SentRecord) Receiver() string  { return r.ReceiverEmail }
func (r SentRecord) Timestamp() string { return r.SentAt }
func (SentRecord) record()             {}

type ResponseRecord struct {
	SenderEmail       string  `json:"sender_email"`
	ReceiverEmail     string  `json:"receiver_email"`
	ResponseLabel     string  `json:"responds"`
	Subject           *string `json:"subject"`
	Body              *string `json:"body"`
	UpdatedAt         string  `json:"updated_at"`
	EmailCampaignType string  `json:"email_campaign_type,omitempty"`
}

func (r ResponseRecord) Sender() string    { return r.SenderEmail }
func (r ResponseRecord) Receiver() string  { return r.ReceiverEmail }
func (r ResponseRecord) Timestamp() string { return r.UpdatedAt }
func (ResponseRecord) record()             {}

type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
}

// MonthlySummary holds the counters for the queried campaign and window.
type MonthlySummary struct {
	Sent              int `json:"monthly_sent"`
	Unsubscribed      int `json:"monthly_unsubscribed"`
	PositiveResponses int `json:"monthly_positive_responds"`
	NotResponded      int `json:"monthly_not_responds"`
}

// MonthlyStats is either a single Overall summary or one summary per email type.
type MonthlyStats struct {
	Overall     *MonthlySummary
	ByEmailType map[EmailType]MonthlySummary
}

// For returns the summary for t, falling back to Overall.
func (s MonthlyStats) For(t EmailType) MonthlySummary {
	if v, ok := s.ByEmailType[t]; ok {
		return v
	}
	if s.Overall != nil {
		return *s.Overall
	}
	return MonthlySummary{}
}

// FiltersApplied echoes the filters the server used.
type FiltersApplied struct {
	Type           string `json:"type,omitempty"`
	EmailType      string `json:"email_type,omitempty"`
	DateFrom       string `json:"date_from,omitempty"`
	DateTo         string `json:"date_to,omitempty"`
	RespondsFilter string `json:"responds_filter,omitempty"`
}

type ReportResult struct {
	Kind       ReportKind
	Records    []Record
	Pagination Pagination
	Stats      MonthlyStats
	Filters    FiltersApplied
}

type ResponseOption struct {
	Label string `json:"label"`
}

// UploadFile is the spreadsheet handed to an upload.
type UploadFile struct {
	Name     string
	Size     int64
	MIMEType string
	Open     func() (io.ReadCloser, error)
}

// UploadRequest is what the transport sends for one submission.
type UploadRequest struct {
	File      UploadFile
	Campaign  Campaign
	EmailType EmailType
}

// UploadSummary carries the server's import counters verbatim.
type UploadSummary struct {
	Message               string `json:"-"`
	TotalRowsInFile       int    `json:"total_rows_in_file"`
	Inserted              int    `json:"inserted"`
	Updated               int    `json:"updated"`
	Skipped               int    `json:"skipped"`
	DuplicatesNoChange    int    `json:"duplicates_no_change"`
	UnsubscribedOverrides int    `json:"unsubscribed_overrides"`
	EmailType             string `json:"email_type"`
}

type UnsubscribeRequest struct {
	K    string `json:"k"`
	To   string `json:"to"`
	From string `json:"from"`
}

type UnsubscribeResult struct {
	Message       string `json:"-"`
	IsSubscribed  int    `json:"is_subscribed"`
	K             string `json:"k"`
	ReceiverEmail string `json:"receiver_email"`
	SenderEmail   string `json:"sender_email"`
}

// UploadRecord is one row of the local upload history.
type UploadRecord struct {
	ID        string
	FileName  string
	SizeBytes int64
	Campaign  Campaign
	EmailType EmailType
	Phase     string
	Reason    string
	Summary   UploadSummary
	CreatedAt time.Time
}
