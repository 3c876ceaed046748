package ccnut

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/goliatone/go-ccnut/pkg/querystring"
	"github.com/goliatone/go-ccnut/pkg/scope"
)

// Handler serves the .html files in files, linking each one per request with
// the request's query string. Directory requests resolve to index.html.
func (e *Engine) Handler(files fs.FS, sc scope.Scope) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		if ext := path.Ext(name); ext != ".html" && ext != ".htm" {
			http.NotFound(w, r)
			return
		}

		data, err := fs.ReadFile(files, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			e.logger.Error("ccnut handler:", name, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		report, err := e.Link(r.Context(), bytes.NewReader(data), &buf, sc, querystring.FromRequest(r))
		if err != nil {
			e.logger.Error("ccnut handler:", name, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !report.OK() {
			e.logger.Warn("ccnut handler:", name, report.String())
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(buf.Bytes())
	})
}
