package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-ccnut/pkg/scope"
	"github.com/goliatone/go-ccnut/pkg/widgets"
)

type scriptedDriver struct {
	inputs   []string
	confirm  bool
	selected []int
	err      error

	asked    []string
	defaults []int
	options  []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if d.err != nil {
		return "", d.err
	}
	if len(d.inputs) == 0 {
		return "", nil
	}
	next := d.inputs[0]
	d.inputs = d.inputs[1:]
	return next, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	return d.confirm, d.err
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	d.asked = append(d.asked, cfg.Message)
	d.options = cfg.Options
	d.defaults = cfg.Defaults
	return d.selected, d.err
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestCollectScope(t *testing.T) {
	sc := scope.New(map[string]any{"user": map[string]any{"name": "Ada"}})
	driver := &scriptedDriver{inputs: []string{"Welcome", ""}}

	got, err := CollectScope(context.Background(), driver, []string{"title", "user.name", "subtitle"}, sc)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if diff := cmp.Diff([]string{"Value for title:", "Value for subtitle:"}, driver.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if v, _ := got.Lookup("title"); v != "Welcome" {
		t.Fatalf("title = %v", v)
	}
	if _, ok := got.Lookup("subtitle"); ok {
		t.Fatalf("blank answer must leave subtitle unset")
	}
	if _, ok := sc.Lookup("title"); ok {
		t.Fatalf("input scope was mutated")
	}
}

func TestCollectScope_Aborted(t *testing.T) {
	driver := &scriptedDriver{err: ErrAborted}
	if _, err := CollectScope(context.Background(), driver, []string{"x"}, scope.Scope{}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestSelectPlugins(t *testing.T) {
	reg := widgets.NewRegistry()
	reg.MarkUnavailable(widgets.WidgetSlider)
	driver := &scriptedDriver{selected: []int{2}}

	if err := SelectPlugins(context.Background(), driver, reg); err != nil {
		t.Fatalf("select plugins: %v", err)
	}

	wantOptions := []string{"datepicker (jQuery UI)", "slider (jQuery UI)", "tooltip (Bootstrap)"}
	if diff := cmp.Diff(wantOptions, driver.options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, driver.defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if !reg.Available(widgets.WidgetTooltip) || reg.Available(widgets.WidgetDatepicker) || reg.Available(widgets.WidgetSlider) {
		t.Fatalf("unexpected availability after selection")
	}
}

func TestConfirmOverwrite(t *testing.T) {
	ok, err := ConfirmOverwrite(context.Background(), &scriptedDriver{confirm: true}, "out/index.html")
	if err != nil || !ok {
		t.Fatalf("confirm = %v, %v", ok, err)
	}
}
