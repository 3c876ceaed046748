package directive

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReferences(t *testing.T) {
	markup := `
<span ccnut-replace="{'%n%': user.name, '%s%': 'literal', '%c%': 3}">%n%</span>
<span ccnut-replace="{'%n%': user.name, '%t%': title}">%n%</span>
<input ng-model="form.birthday" ccnut-jquery-ui-datepicker="{maxDate: limit}">
<div ccnut-replace="{broken">x</div>
<p ng-model="ignored">not a widget</p>`

	got, err := References(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("references: %v", err)
	}
	want := []string{"form.birthday", "limit", "title", "user.name"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestReferences_Empty(t *testing.T) {
	got, err := References(strings.NewReader(`<p>plain</p>`))
	if err != nil {
		t.Fatalf("references: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no references, got %v", got)
	}
}
