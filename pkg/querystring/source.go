package querystring

import (
	"net/http"
	"net/url"
)

// Source supplies the current query string, including the leading "?" when
// one is present.
type Source interface {
	QueryString() string
}

// SourceFunc adapts a function into a Source.
type SourceFunc func() string

// QueryString delegates to the underlying function.
func (fn SourceFunc) QueryString() string {
	if fn == nil {
		return ""
	}
	return fn()
}

// Static returns a Source that always yields raw.
func Static(raw string) Source {
	return SourceFunc(func() string { return raw })
}

// FromURL exposes the query portion of u the way a browser location does:
// "?" followed by the raw query, or "" when there is none.
func FromURL(u *url.URL) Source {
	return SourceFunc(func() string {
		if u == nil || u.RawQuery == "" {
			return ""
		}
		return "?" + u.RawQuery
	})
}

// FromRequest reads the query string of an inbound request.
func FromRequest(r *http.Request) Source {
	if r == nil {
		return Static("")
	}
	return FromURL(r.URL)
}
