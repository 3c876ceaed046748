package widgets

import (
	"errors"
	"testing"
	"time"
)

func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestFormatDate(t *testing.T) {
	day := time.Date(2013, time.March, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		format string
		want   string
	}{
		{format: "dd-mm-yy", want: "07-03-2013"},
		{format: "d/m/y", want: "7/3/13"},
		{format: "DD, MM d, yy", want: "Thursday, March 7, 2013"},
		{format: "D M dd", want: "Thu Mar 07"},
		{format: "yy-oo", want: "2013-066"},
		{format: "o", want: "66"},
		{format: "'day' d 'of' MM", want: "day 7 of March"},
		{format: "''yy''", want: "'2013'"},
		{format: "", want: "07-03-2013"},
	}
	for _, tc := range tests {
		if got := FormatDate(day, tc.format); got != tc.want {
			t.Fatalf("FormatDate(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	fixNow(t, time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		text   string
		format string
		want   time.Time
	}{
		{text: "07-03-2013", format: "dd-mm-yy", want: time.Date(2013, 3, 7, 0, 0, 0, 0, time.UTC)},
		{text: "7/3/13", format: "d/m/y", want: time.Date(2013, 3, 7, 0, 0, 0, 0, time.UTC)},
		{text: "1/1/99", format: "d/m/y", want: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)},
		{text: "Thursday, March 7, 2013", format: "DD, MM d, yy", want: time.Date(2013, 3, 7, 0, 0, 0, 0, time.UTC)},
		{text: "2013-066", format: "yy-oo", want: time.Date(2013, 3, 7, 0, 0, 0, 0, time.UTC)},
		{text: "day 7 of March", format: "'day' d 'of' MM", want: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.text, tc.format)
		if err != nil {
			t.Fatalf("ParseDate(%q, %q): %v", tc.text, tc.format, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseDate(%q, %q) = %s, want %s", tc.text, tc.format, got, tc.want)
		}
	}
}

func TestParseDate_Errors(t *testing.T) {
	for _, tc := range []struct{ text, format string }{
		{text: "31-02-2013", format: "dd-mm-yy"},
		{text: "7-3-2013", format: "dd-mm-yy"},
		{text: "07-03-2013x", format: "dd-mm-yy"},
		{text: "07/03/2013", format: "dd-mm-yy"},
		{text: "Foo 7", format: "M d"},
	} {
		if _, err := ParseDate(tc.text, tc.format); !errors.Is(err, ErrDateFormat) {
			t.Fatalf("ParseDate(%q, %q): expected ErrDateFormat, got %v", tc.text, tc.format, err)
		}
	}
}

func TestCheckDateRange(t *testing.T) {
	fixNow(t, time.Date(2024, time.June, 1, 18, 30, 0, 0, time.UTC))
	opts := map[string]any{"maxDate": 0, "minDate": -7}

	if err := CheckDateRange(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), opts); err != nil {
		t.Fatalf("today should be allowed: %v", err)
	}
	if err := CheckDateRange(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), opts); !errors.Is(err, ErrDateOutOfRange) {
		t.Fatalf("expected tomorrow to exceed maxDate, got %v", err)
	}
	if err := CheckDateRange(time.Date(2024, 5, 24, 0, 0, 0, 0, time.UTC), opts); !errors.Is(err, ErrDateOutOfRange) {
		t.Fatalf("expected minDate violation, got %v", err)
	}
	if err := CheckDateRange(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil); err != nil {
		t.Fatalf("no bounds should allow anything: %v", err)
	}
}

func TestDatepickerValue(t *testing.T) {
	opts := map[string]any{"dateFormat": "dd-mm-yy"}
	day := time.Date(2013, 3, 7, 0, 0, 0, 0, time.UTC)
	if got := DatepickerValue(day, opts); got != "07-03-2013" {
		t.Fatalf("time value: %q", got)
	}
	if got := DatepickerValue(nil, opts); got != "" {
		t.Fatalf("nil value: %q", got)
	}
	if got := DatepickerValue("01-01-2000", opts); got != "01-01-2000" {
		t.Fatalf("string value: %q", got)
	}
}

func TestSliderValue(t *testing.T) {
	tests := []struct {
		view any
		opts map[string]any
		want float64
	}{
		{view: nil, want: 0},
		{view: "abc", want: 0},
		{view: 3, opts: map[string]any{"min": 1, "max": 5}, want: 3},
		{view: 9, opts: map[string]any{"min": 1, "max": 5}, want: 5},
		{view: nil, opts: map[string]any{"min": 1, "max": 5}, want: 1},
		{view: "42.4", want: 42},
		{view: 7, opts: map[string]any{"step": 5}, want: 5},
		{view: 8, opts: map[string]any{"step": 5}, want: 10},
		{view: 0.36, opts: map[string]any{"max": 1, "step": 0.1}, want: 0.4},
	}
	for _, tc := range tests {
		if got := SliderValue(tc.view, tc.opts); got != tc.want {
			t.Fatalf("SliderValue(%v, %v) = %v, want %v", tc.view, tc.opts, got, tc.want)
		}
	}
	if FormatNumber(2.50) != "2.5" {
		t.Fatalf("FormatNumber trailing zeros")
	}
}
