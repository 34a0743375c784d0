package util

import "testing"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`Name <User@Example.COM>`, "user@example.com"},
		{`"Name" <user+news@Example.com>`, "user+news@example.com"}, // alias kept
		{`  user.name@example.com `, "user.name@example.com"},
		{`bad address`, ""},
		{`"A" <not-an-email> , "B" <c@D.com>`, "c@d.com"},
		{``, ""},
	}
	for _, tc := range tests {
		if got := NormalizeAddress(tc.in); got != tc.want {
			t.Errorf("NormalizeAddress(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSenderKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Name" <user+news@Example.com>`, "user@example.com"},
		{`user.name+tag@EXAMPLE.com`, "user.name@example.com"}, // dots preserved
		{`bad address`, ""},
	}
	for _, tc := range tests {
		if got := SenderKey(tc.in); got != tc.want {
			t.Errorf("SenderKey(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello</p><p>World</p>", "Hello\nWorld"},
		{"Thanks &amp; regards<br/>Sam", "Thanks & regards\nSam"},
		{"<div><b>Yes</b>, interested</div>", "Yes, interested"},
		{"plain text", "plain text"},
		{"a<BR>b", "a\nb"},
	}
	for _, tc := range tests {
		if got := StripHTMLTags(tc.in); got != tc.want {
			t.Errorf("StripHTMLTags(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapseAndTruncate(t *testing.T) {
	if got := CollapseWhitespace("a\n\n b\t c "); got != "a b c" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"héllo", 2, "h…"},
		{"x", 0, ""},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q; want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		style TimestampStyle
		zone  string
		want  string
	}{
		{"summary pm", "Mon, 16 Feb 2026 15:35:52 GMT", StyleSummary, "IST", "Mon, 16 Feb 2026 3:35 PM IST"},
		{"warmup pm", "Mon, 16 Feb 2026 15:35:52 GMT", StyleWarmup, "IST", "Feb 16, 2026 @ 3:35 PM IST"},
		{"midnight", "Tue, 03 Mar 2026 00:05:00 GMT", StyleSummary, "IST", "Tue, 03 Mar 2026 12:05 AM IST"},
		{"noon", "Tue, 03 Mar 2026 12:00:00 GMT", StyleWarmup, "IST", "Mar 03, 2026 @ 12:00 PM IST"},
		{"default zone", "Tue, 03 Mar 2026 09:15:00 GMT", StyleSummary, "", "Tue, 03 Mar 2026 9:15 AM IST"},
		{"custom zone", "Tue, 03 Mar 2026 09:15:00 GMT", StyleSummary, "UTC", "Tue, 03 Mar 2026 9:15 AM UTC"},
		{"fallback strips gmt", "2026-02-16 15:35 GMT+0000", StyleSummary, "IST", "2026-02-16 15:35 IST"},
		{"fallback plain", "yesterday", StyleWarmup, "IST", "yesterday IST"},
		{"empty", "", StyleSummary, "IST", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatTimestamp(tc.in, tc.style, tc.zone); got != tc.want {
				t.Errorf("FormatTimestamp(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}
