package pubdate

import (
	"testing"

	"github.com/matsen/rxivlink/internal/status"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		online   string
		issue    string
		wantDate string
		wantType string
	}{
		{"online preferred", "03/15/2020", "06/01/2020", "03/15/2020", TypeOnline},
		{"issue fallback", "", "06/01/2020", "06/01/2020", TypeIssue},
		{"blank online is absent", "  ", "06/01/2020", "06/01/2020", TypeIssue},
		{"online only", "03/15/2020", "", "03/15/2020", TypeOnline},
		{"neither", "", "", "", ""},
		{"missing markers", "NA", "nan", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, pubType := Reconcile(tt.online, tt.issue)
			if date != tt.wantDate || pubType != tt.wantType {
				t.Errorf("Reconcile(%q, %q) = (%q, %q), want (%q, %q)",
					tt.online, tt.issue, date, pubType, tt.wantDate, tt.wantType)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want *int
	}{
		{"january", "2020-01-01", "2020-02-01", intPtr(31)},
		{"mixed layouts", "2020-02-01", "03/15/2020", intPtr(43)},
		{"negative span", "03/15/2020", "2020-03-01", intPtr(-14)},
		{"same day", "2020-01-01", "01/01/2020", intPtr(0)},
		{"leap year", "2020-02-28", "2020-03-01", intPtr(2)},
		{"unparsable from", "junk", "2020-01-01", nil},
		{"unparsable to", "2020-01-01", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysBetween(tt.from, tt.to)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("DaysBetween(%q, %q) = %v, want %v", tt.from, tt.to, fmtPtr(got), fmtPtr(tt.want))
			}
			if got != nil && *got != *tt.want {
				t.Errorf("DaysBetween(%q, %q) = %d, want %d", tt.from, tt.to, *got, *tt.want)
			}
		})
	}
}

func TestSubmissionToPublication(t *testing.T) {
	if got := SubmissionToPublication(status.PreprintOnly, "2020-02-01", "03/15/2020"); got != nil {
		t.Errorf("preprint only = %d, want nil", *got)
	}
	if got := SubmissionToPublication("", "2020-02-01", "03/15/2020"); got != nil {
		t.Errorf("empty status = %d, want nil", *got)
	}
	for _, s := range []status.Status{status.GrayZone, status.Published} {
		got := SubmissionToPublication(s, "2020-02-01", "03/15/2020")
		if got == nil || *got != 43 {
			t.Errorf("%s = %v, want 43", s, fmtPtr(got))
		}
	}
	if got := SubmissionToPublication(status.Published, "2020-02-01", ""); got != nil {
		t.Errorf("missing publication date = %d, want nil", *got)
	}
}

func TestVersionSpan(t *testing.T) {
	got := VersionSpan("2020-01-01", "2020-02-01")
	if got == nil || *got != 31 {
		t.Errorf("VersionSpan = %v, want 31", fmtPtr(got))
	}
	if VersionSpan("2020-01-01", "") != nil {
		t.Error("VersionSpan with missing last date should be nil")
	}
}

func intPtr(n int) *int { return &n }

func fmtPtr(p *int) any {
	if p == nil {
		return "nil"
	}
	return *p
}
