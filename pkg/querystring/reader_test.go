package querystring

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-ccnut/pkg/logger"
)

func TestReader_GetParam(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		param    string
		defaults []string
		want     string
	}{
		{name: "simple", query: "?param=hello", param: "param", want: "hello"},
		{name: "default on miss", query: "", param: "param", defaults: []string{"fallback"}, want: "fallback"},
		{name: "omitted default", query: "?other=1", param: "param", want: ""},
		{name: "brackets literal", query: "?a[b]=x", param: "a[b]", want: "x"},
		{name: "brackets not a class", query: "?ab=y", param: "a[b]", want: ""},
		{name: "plus to space", query: "?p=hello+world", param: "p", want: "hello world"},
		{name: "percent decode", query: "?p=caf%C3%A9%20au%2Blait", param: "p", want: "café au+lait"},
		{name: "second parameter", query: "?a=1&b=2", param: "b", want: "2"},
		{name: "fragment stops value", query: "?a=1#top", param: "a", want: "1"},
		{name: "suffix does not match", query: "?xa=1", param: "a", want: ""},
		{name: "empty value uses default", query: "?a=&b=2", param: "a", defaults: []string{"d"}, want: "d"},
		{name: "dot is literal", query: "?aXb=1", param: "a.b", want: ""},
		{name: "first occurrence wins", query: "?a=1&a=2", param: "a", want: "1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(Static(tc.query))
			if got := r.GetParam(tc.param, tc.defaults...); got != tc.want {
				t.Fatalf("GetParam(%q) = %q, want %q", tc.param, got, tc.want)
			}
		})
	}
}

func TestReader_Idempotent(t *testing.T) {
	r := New(Static("?param=hello+there"))
	first := r.GetParam("param")
	second := r.GetParam("param")
	if first != second || first != "hello there" {
		t.Fatalf("expected identical results, got %q and %q", first, second)
	}
}

func TestReader_MalformedEscape(t *testing.T) {
	rec := logger.NewRecorder()
	lenient := New(Static("?p=100%+off"), WithLogger(rec))
	if got := lenient.GetParam("p", "d"); got != "100% off" {
		t.Fatalf("lenient decode: got %q", got)
	}
	if len(rec.Messages("warn")) != 1 {
		t.Fatalf("expected one warning, got %v", rec.Entries())
	}

	strict := New(Static("?p=100%+off"), WithStrictDecode(true))
	if got := strict.GetParam("p", "d"); got != "d" {
		t.Fatalf("strict decode: got %q", got)
	}
}

func TestReader_Sources(t *testing.T) {
	u, err := url.Parse("https://example.com/page?q=go+lang&n=1#frag")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if got := New(FromURL(u)).QueryString(); got != "?q=go+lang&n=1" {
		t.Fatalf("FromURL query string: %q", got)
	}

	req := httptest.NewRequest("GET", "/search?q=ccnut", nil)
	if got := New(FromRequest(req)).GetParam("q"); got != "ccnut" {
		t.Fatalf("FromRequest: got %q", got)
	}

	if got := New(FromURL(&url.URL{Path: "/"})).QueryString(); got != "" {
		t.Fatalf("expected empty query string, got %q", got)
	}
	if got := New(nil).GetParam("x", "d"); got != "d" {
		t.Fatalf("nil source: got %q", got)
	}
}

func TestReader_Params(t *testing.T) {
	r := New(Static("?a=1&b=two+words&flag&c=%7Bx%7D&a=2#frag"))
	want := []Param{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "two words"},
		{Name: "flag", Value: ""},
		{Name: "c", Value: "{x}"},
		{Name: "a", Value: "2"},
	}
	if diff := cmp.Diff(want, r.Params()); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}

	values := r.Values()
	if values["a"] != "1" || values["b"] != "two words" {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode("a+b%21")
	if err != nil || got != "a b!" {
		t.Fatalf("Decode() = %q, %v", got, err)
	}
	if _, err := Decode("%zz"); !errors.Is(err, ErrMalformedEscape) {
		t.Fatalf("expected ErrMalformedEscape, got %v", err)
	}
}
