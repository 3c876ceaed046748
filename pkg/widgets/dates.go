package widgets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is the datepicker's default dateFormat option.
const DefaultDateFormat = "dd-mm-yy"

// ErrDateFormat is returned when text does not match a datepicker format.
var ErrDateFormat = errors.New("widgets: date does not match format")

// ErrDateOutOfRange is returned when a date falls outside minDate/maxDate.
var ErrDateOutOfRange = errors.New("widgets: date out of range")

var now = time.Now

// FormatDate renders t with a jQuery UI datepicker format:
//
//	d, dd   day of month (no leading zero / two digit)
//	o, oo   day of year (no leading zeros / three digit)
//	D, DD   day name (short / long)
//	m, mm   month of year (no leading zero / two digit)
//	M, MM   month name (short / long)
//	y, yy   year (two digit / four digit)
//	@       Unix timestamp in milliseconds
//	'...'   literal text, '' for a single quote
func FormatDate(t time.Time, format string) string {
	if format == "" {
		format = DefaultDateFormat
	}
	var b strings.Builder
	for _, tok := range tokenizeDateFormat(format) {
		switch tok.kind {
		case dateLiteral:
			b.WriteString(tok.text)
		case dateDay:
			b.WriteString(pad(t.Day(), tok.width))
		case dateDayOfYear:
			if tok.width == 2 {
				b.WriteString(pad(t.YearDay(), 3))
			} else {
				b.WriteString(strconv.Itoa(t.YearDay()))
			}
		case dateDayName:
			if tok.width == 2 {
				b.WriteString(t.Weekday().String())
			} else {
				b.WriteString(t.Weekday().String()[:3])
			}
		case dateMonth:
			b.WriteString(pad(int(t.Month()), tok.width))
		case dateMonthName:
			if tok.width == 2 {
				b.WriteString(t.Month().String())
			} else {
				b.WriteString(t.Month().String()[:3])
			}
		case dateYear:
			if tok.width == 2 {
				b.WriteString(pad(t.Year(), 4))
			} else {
				b.WriteString(pad(t.Year()%100, 2))
			}
		case dateTimestamp:
			b.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
		}
	}
	return b.String()
}

// ParseDate reads text written in a jQuery UI datepicker format. Two digit
// years fall in the century that keeps them within ten years of today.
func ParseDate(text, format string) (time.Time, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	var (
		year, month, day = -1, -1, -1
		yearDay          = -1
		pos              int
	)

	fail := func(detail string) (time.Time, error) {
		return time.Time{}, fmt.Errorf("%w: %q (%s) at position %d: %s", ErrDateFormat, text, format, pos, detail)
	}

	for _, tok := range tokenizeDateFormat(format) {
		switch tok.kind {
		case dateLiteral:
			if !strings.HasPrefix(text[pos:], tok.text) {
				return fail("unexpected literal")
			}
			pos += len(tok.text)
		case dateDay, dateMonth, dateDayOfYear, dateYear:
			minDigits, maxDigits := digitBounds(tok)
			n, width := readNumber(text[pos:], minDigits, maxDigits)
			if width == 0 {
				return fail("missing number")
			}
			pos += width
			switch tok.kind {
			case dateDay:
				day = n
			case dateMonth:
				month = n
			case dateDayOfYear:
				yearDay = n
			case dateYear:
				if tok.width == 1 {
					n = expandShortYear(n)
				}
				year = n
			}
		case dateDayName, dateMonthName:
			idx, width := readName(text[pos:], tok)
			if width == 0 {
				return fail("unknown name")
			}
			pos += width
			if tok.kind == dateMonthName {
				month = idx
			}
		case dateTimestamp:
			n, width := readNumber(text[pos:], 1, 20)
			if width == 0 {
				return fail("missing timestamp")
			}
			pos += width
			ts := time.UnixMilli(int64(n)).UTC()
			year, month, day = ts.Year(), int(ts.Month()), ts.Day()
		}
	}
	if pos < len(text) {
		return fail("extra characters")
	}

	if year == -1 {
		year = now().Year()
	}
	if yearDay > -1 {
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, yearDay-1)
		if t.Year() != year {
			return fail("day of year out of range")
		}
		month, day = int(t.Month()), t.Day()
	}
	if month < 1 || day < 1 {
		return fail("incomplete date")
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return fail("invalid date")
	}
	return t, nil
}

// CheckDateRange validates t against numeric minDate/maxDate options, which
// are day offsets from today (maxDate: 0 means "no later than today").
func CheckDateRange(t time.Time, options map[string]any) error {
	today := truncateDay(now())
	day := truncateDay(t)
	if offset, ok := toFloat(options["minDate"]); ok {
		if day.Before(today.AddDate(0, 0, int(offset))) {
			return fmt.Errorf("%w: %s before minDate", ErrDateOutOfRange, day.Format(time.DateOnly))
		}
	}
	if offset, ok := toFloat(options["maxDate"]); ok {
		if day.After(today.AddDate(0, 0, int(offset))) {
			return fmt.Errorf("%w: %s after maxDate", ErrDateOutOfRange, day.Format(time.DateOnly))
		}
	}
	return nil
}

// DatepickerValue renders a model value for the datepicker input. Empty or
// missing values render as "", times are formatted with the dateFormat option
// and anything else is printed as is.
func DatepickerValue(view any, options map[string]any) string {
	format, _ := options["dateFormat"].(string)
	switch v := view.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return FormatDate(v, format)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return FormatDate(*v, format)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

type dateTokenKind int

const (
	dateLiteral dateTokenKind = iota
	dateDay
	dateDayOfYear
	dateDayName
	dateMonth
	dateMonthName
	dateYear
	dateTimestamp
)

type dateToken struct {
	kind  dateTokenKind
	width int
	text  string
}

func tokenizeDateFormat(format string) []dateToken {
	var tokens []dateToken
	literal := func(s string) {
		if n := len(tokens); n > 0 && tokens[n-1].kind == dateLiteral {
			tokens[n-1].text += s
			return
		}
		tokens = append(tokens, dateToken{kind: dateLiteral, text: s})
	}

	for i := 0; i < len(format); {
		ch := format[i]
		if ch == '\'' {
			if i+1 < len(format) && format[i+1] == '\'' {
				literal("'")
				i += 2
				continue
			}
			end := strings.IndexByte(format[i+1:], '\'')
			if end < 0 {
				literal(format[i+1:])
				break
			}
			literal(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		width := 1
		if i+1 < len(format) && format[i+1] == ch {
			width = 2
		}
		switch ch {
		case 'd':
			tokens = append(tokens, dateToken{kind: dateDay, width: width})
		case 'o':
			tokens = append(tokens, dateToken{kind: dateDayOfYear, width: width})
		case 'D':
			tokens = append(tokens, dateToken{kind: dateDayName, width: width})
		case 'm':
			tokens = append(tokens, dateToken{kind: dateMonth, width: width})
		case 'M':
			tokens = append(tokens, dateToken{kind: dateMonthName, width: width})
		case 'y':
			tokens = append(tokens, dateToken{kind: dateYear, width: width})
		case '@':
			width = 1
			tokens = append(tokens, dateToken{kind: dateTimestamp, width: 1})
		default:
			width = 1
			literal(string(ch))
		}
		i += width
	}
	return tokens
}

func digitBounds(tok dateToken) (int, int) {
	switch tok.kind {
	case dateDayOfYear:
		if tok.width == 2 {
			return 3, 3
		}
		return 1, 3
	case dateYear:
		if tok.width == 2 {
			return 4, 4
		}
		return 2, 2
	default:
		if tok.width == 2 {
			return 2, 2
		}
		return 1, 2
	}
}

func readNumber(s string, minDigits, maxDigits int) (int, int) {
	width := 0
	for width < len(s) && width < maxDigits && s[width] >= '0' && s[width] <= '9' {
		width++
	}
	if width < minDigits {
		return 0, 0
	}
	n, err := strconv.Atoi(s[:width])
	if err != nil {
		return 0, 0
	}
	return n, width
}

func readName(s string, tok dateToken) (int, int) {
	long := tok.width == 2
	if tok.kind == dateMonthName {
		for m := time.January; m <= time.December; m++ {
			name := m.String()
			if !long {
				name = name[:3]
			}
			if len(s) >= len(name) && strings.EqualFold(s[:len(name)], name) {
				return int(m), len(name)
			}
		}
		return 0, 0
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if !long {
			name = name[:3]
		}
		if len(s) >= len(name) && strings.EqualFold(s[:len(name)], name) {
			return int(d), len(name)
		}
	}
	return 0, 0
}

func expandShortYear(n int) int {
	current := now().Year()
	century := current - current%100
	cutoff := current%100 + 10
	year := century + n
	if n > cutoff {
		year -= 100
	}
	return year
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
