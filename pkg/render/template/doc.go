// Package template defines the template engine seam used before directive
// linking. The gotemplate subpackage provides a pongo2-backed engine that
// exposes the replacer as the replace function and the query-string reader
// as the query_param function.
package template
