package status

import (
	"strings"
	"testing"

	"github.com/hamed0406/sitenotifier/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		code     int
		want     domain.Status
		contains []string
	}{
		{200, domain.StatusActive, nil},
		{0, domain.StatusFailed, []string{"Timed out"}},
		{503, domain.StatusFailed, []string{"server error", "503"}},
		{500, domain.StatusFailed, []string{"server error", "500"}},
		{404, domain.StatusFailed, []string{"unexpected response", "404"}},
		{301, domain.StatusFailed, []string{"unexpected response", "301"}},
		{204, domain.StatusFailed, []string{"unexpected response", "204"}},
	}
	for _, c := range cases {
		got, msg := Classify(c.code)
		if got != c.want {
			t.Fatalf("Classify(%d) status=%q want %q", c.code, got, c.want)
		}
		for _, s := range c.contains {
			if !strings.Contains(msg, s) {
				t.Fatalf("Classify(%d) message %q missing %q", c.code, msg, s)
			}
		}
	}

	if st, msg := Classify(200); st != domain.StatusActive || msg != "" {
		t.Fatalf("Classify(200)=(%q,%q) want (active,\"\")", st, msg)
	}
}

func TestFormatDowntime(t *testing.T) {
	const t0 = int64(1_700_000_000)
	cases := []struct {
		elapsed int64
		want    string
	}{
		{0, "*and 0 seconds*"},
		{1, "* 1 second*"},
		{5, "* 5 seconds*"},
		{60, "*1 minute and 0 seconds*"},
		{90, "*1 minute and 30 seconds*"},
		{125, "*2 minutes and 5 seconds*"},
		{3600, "*1 hour and 0 seconds*"},
		{3661, "*1 hour 1 minute and 1 second*"},
		{7322, "*2 hours 2 minutes and 2 seconds*"},
		{7201, "*2 hours and 1 second*"},
		{90000, "*25 hours and 0 seconds*"},
	}
	for _, c := range cases {
		if got := FormatDowntime(t0, t0+c.elapsed); got != c.want {
			t.Fatalf("FormatDowntime(+%d)=%q want %q", c.elapsed, got, c.want)
		}
	}
}

func TestFormatDowntime_ClockSkewClampsToZero(t *testing.T) {
	if got := FormatDowntime(100, 40); got != "*and 0 seconds*" {
		t.Fatalf("negative elapsed should clamp, got %q", got)
	}
}

func TestPlural(t *testing.T) {
	if plural(1, "hour", "hours") != "hour" || plural(0, "hour", "hours") != "hours" || plural(2, "hour", "hours") != "hours" {
		t.Fatal("plural picks the wrong form")
	}
}
