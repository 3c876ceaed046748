// Package replace substitutes patterns in a block of markup.
//
// A replacement Map pairs regular-expression sources with values. Entries are
// applied in order and each one sees the output of the previous entry. Values
// that are falsy (empty string, nil, zero, false) are skipped rather than
// treated as "replace with nothing".
//
// Patterns are compiled as RE2 expressions without escaping, so "." matches any
// character:
//
//	r := replace.New()
//	r.Replace("a.b.c", replace.Map{{Pattern: ".", Value: "-"}}) // "-----"
//
// Use WithLiteralPatterns to quote every pattern instead.
//
// Apply reports failures through Result.Err. Replace is the forgiving boundary
// used by bindings: it logs the failure and hands back the original markup.
package replace
