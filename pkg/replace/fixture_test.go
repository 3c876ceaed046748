package replace_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-ccnut/pkg/replace"
	"github.com/goliatone/go-ccnut/pkg/testsupport"
)

func TestReplacer_Fixture(t *testing.T) {
	m := testsupport.MustLoadReplacements(t, filepath.Join("testdata", "replacements.yaml"))

	if diff := cmp.Diff([]string{"%greeting%", "%name%", `\.`}, m.Patterns()); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}

	result := replace.New().Apply("%greeting%, %name%.", m)
	if !result.OK() {
		t.Fatalf("apply: %v", result.Err)
	}
	if result.Output != "Hello, Jurgen!" || result.Applied != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
}
