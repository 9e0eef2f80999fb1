package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glazing-tools/catalogpilot/internal/browser/browsertest"
	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/retry"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	return ctx.Err()
}

func testOptions(s retry.Sleeper) Options {
	opts := DefaultOptions()
	opts.Sleeper = s
	return opts
}

func glassLayout() Layout {
	return DefaultLayouts()[catalog.FamilyGlass]
}

func glassPage(l Layout) *browsertest.Page {
	page := browsertest.New()
	page.OptionLists[l.Fields[FieldUnit]] = []string{"each", "m2", "pair"}
	page.OptionLists[l.Fields[FieldAllocatedUnit]] = []string{"each", "m2"}
	return page
}

func glassItems(n int) []catalog.Item {
	items := make([]catalog.Item, n)
	for i := range items {
		items[i] = catalog.GlassItem{
			PartNumber: "G-" + string(rune('1'+i)),
			Name:       "Clear Float",
			Unit:       "m2",
			Cost:       "10.00",
			Obscure:    "No",
		}
	}
	return items
}

func TestRunContinuesAfterFailure(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)
	page.FailNext("click", l.Submit, nil, nil, errors.New("submit button detached"))

	rec := &progress.Recorder{}
	tally := New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), glassItems(5), rec)

	if tally.Total != 5 || tally.Attempted != 5 {
		t.Errorf("Expected 5 total and 5 attempted, got %+v", tally)
	}
	if tally.Failed != 1 {
		t.Errorf("Expected 1 failure, got %d", tally.Failed)
	}
	if tally.Submitted != 4 || tally.Succeeded != 4 {
		t.Errorf("Expected 4 submitted and succeeded, got %d and %d", tally.Submitted, tally.Succeeded)
	}
	if len(tally.Failures) != 1 || tally.Failures[0].Key != "G-3" {
		t.Fatalf("Expected G-3 to fail, got %+v", tally.Failures)
	}
	if !strings.Contains(tally.Failures[0].Error, "submit button detached") {
		t.Errorf("Expected original error to be kept, got %q", tally.Failures[0].Error)
	}

	// Items 4 and 5 were still filled in.
	var parts []string
	for _, c := range page.Ops("fill") {
		if c.Selector == l.Fields[FieldPartNumber] {
			parts = append(parts, c.Value)
		}
	}
	want := []string{"G-1", "G-2", "G-3", "G-4", "G-5"}
	if strings.Join(parts, ",") != strings.Join(want, ",") {
		t.Errorf("Expected part numbers %v, got %v", want, parts)
	}

	if !page.Called("click", l.Close) {
		t.Error("Expected the failed dialog to be dismissed")
	}
	if ev, ok := rec.Last("main"); !ok || ev.Value != 5 {
		t.Errorf("Expected main progress to reach 5, got %+v", ev)
	}
}

func TestRunContinuesAfterFieldFailure(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)
	page.FailNext("fill", l.Fields[FieldCost], nil, nil, errors.New("cost field is read-only"))

	tally := New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), glassItems(5), progress.Nop{})

	if tally.Failed != 1 || tally.Submitted != 4 || tally.Succeeded != 4 {
		t.Errorf("Expected 1 failed and 4 submitted, got %+v", tally)
	}
	if len(tally.Failures) != 1 || tally.Failures[0].Key != "G-3" {
		t.Fatalf("Expected G-3 to fail, got %+v", tally.Failures)
	}
	if !strings.Contains(tally.Failures[0].Error, "cost field is read-only") {
		t.Errorf("Expected original error to be kept, got %q", tally.Failures[0].Error)
	}
	if !page.Called("click", l.Close) {
		t.Error("Expected the half-filled dialog to be dismissed")
	}

	submits := 0
	for _, c := range page.Ops("click") {
		if c.Selector == l.Submit {
			submits++
		}
	}
	if submits != 4 {
		t.Errorf("Expected G-3 never to be submitted, got %d submit clicks", submits)
	}
}

func TestRunRetriesAddButton(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)
	flaky := errors.New("element is not attached")
	page.FailNext("click", l.AddButton, flaky, flaky)

	sleeper := &recordingSleeper{}
	tally := New(page, l, testOptions(sleeper)).Run(context.Background(), glassItems(1), progress.Nop{})

	if tally.Succeeded != 1 {
		t.Errorf("Expected item to succeed on third attempt, got %+v", tally)
	}
	if len(sleeper.sleeps) != 2 {
		t.Fatalf("Expected 2 backoff sleeps, got %d", len(sleeper.sleeps))
	}
	if sleeper.sleeps[0] != time.Second {
		t.Errorf("Expected 1s backoff, got %v", sleeper.sleeps[0])
	}
}

func TestRunAddButtonExhausted(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)
	gone := errors.New("add button missing")
	page.FailNext("click", l.AddButton, gone, gone, gone)
	page.FailNext("click", l.Close, errors.New("no close button"))

	tally := New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), glassItems(2), progress.Nop{})

	if tally.Failed != 1 || tally.Succeeded != 1 {
		t.Errorf("Expected 1 failed and 1 succeeded, got %+v", tally)
	}
	if tally.Submitted != 1 {
		t.Errorf("Expected only the second item to be submitted, got %d", tally.Submitted)
	}
	if !strings.Contains(tally.Failures[0].Error, "after 3 attempts") {
		t.Errorf("Expected retry exhaustion in error, got %q", tally.Failures[0].Error)
	}
	if len(page.Ops("press")) != 1 {
		t.Errorf("Expected Escape fallback after close failed, got %v", page.Ops("press"))
	}
}

func TestUnitFallback(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)
	page.OptionLists[l.Fields[FieldUnit]] = []string{"each", "m2"}

	item := catalog.GlassItem{PartNumber: "G-9", Name: "Boxed", Unit: "box", Cost: "1"}
	tally := New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), []catalog.Item{item}, progress.Nop{})

	if tally.Succeeded != 1 {
		t.Fatalf("Expected item to succeed, got %+v", tally)
	}
	if got := page.Selected[l.Fields[FieldUnit]]; got != "each" {
		t.Errorf("Expected fallback to %q, got %q", "each", got)
	}
	if tally.Fallbacks != 1 {
		t.Errorf("Expected 1 counted fallback, got %d", tally.Fallbacks)
	}
}

func TestUnitMatchIgnoresCase(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)
	page.OptionLists[l.Fields[FieldUnit]] = []string{"Each", "M2"}

	item := catalog.GlassItem{PartNumber: "G-1", Unit: "m2"}
	tally := New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), []catalog.Item{item}, progress.Nop{})

	if got := page.Selected[l.Fields[FieldUnit]]; got != "M2" {
		t.Errorf("Expected %q, got %q", "M2", got)
	}
	if tally.Fallbacks != 0 {
		t.Errorf("Expected no fallback, got %d", tally.Fallbacks)
	}
}

func TestStrictUnits(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)

	opts := testOptions(&recordingSleeper{})
	opts.StrictUnits = true
	item := catalog.GlassItem{PartNumber: "G-9", Unit: "box"}
	tally := New(page, l, opts).Run(context.Background(), []catalog.Item{item}, progress.Nop{})

	if tally.Failed != 1 {
		t.Fatalf("Expected strict mode to fail the item, got %+v", tally)
	}
	if !strings.Contains(tally.Failures[0].Error, ErrUnitNotOffered.Error()) {
		t.Errorf("Expected unit error, got %q", tally.Failures[0].Error)
	}
	if page.Called("click", l.Submit) {
		t.Error("Expected no submit in strict mode")
	}
}

func TestGlassFields(t *testing.T) {
	l := glassLayout()
	page := glassPage(l)

	items := []catalog.Item{
		catalog.GlassItem{PartNumber: "G-1", Name: "Satin", Unit: "pair", Cost: "5", Obscure: "YES"},
		catalog.GlassItem{PartNumber: "G-2", Name: "Clear", Unit: "m2", Cost: "6", Obscure: "y"},
	}
	New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), items, progress.Nop{})

	var checks []string
	for _, c := range page.Ops("check") {
		checks = append(checks, c.Value)
	}
	if strings.Join(checks, ",") != "true,false" {
		t.Errorf("Expected obscure ticked only for a literal yes, got %v", checks)
	}

	var qty int
	for _, c := range page.Ops("fill") {
		if c.Selector == l.Fields[FieldAllocationQty] {
			qty++
			if c.Value != "1" {
				t.Errorf("Expected allocation quantity 1, got %q", c.Value)
			}
		}
	}
	if qty != 1 {
		t.Errorf("Expected allocation quantity only for the pair unit, got %d fills", qty)
	}
	if got := page.Selected[l.Fields[FieldAllocatedUnit]]; got != "each" {
		t.Errorf("Expected allocated unit each, got %q", got)
	}
}

func TestPlanOrder(t *testing.T) {
	tests := []struct {
		name   string
		item   catalog.Item
		fields []string
	}{
		{
			name: "ironmongery",
			item: catalog.IronmongeryItem{PartNumber: "IM-1", Unit: "set", Type: "Handles"},
			fields: []string{FieldPartNumber, FieldName, FieldUnit, FieldAllocatedUnit,
				FieldAllocationQty, FieldCost, FieldType, FieldNotes},
		},
		{
			name: "timber",
			item: catalog.TimberRule{Component: "Head", Group: "Frame"},
			fields: []string{FieldComponent, FieldGroup, FieldLoop, FieldActive, FieldStocked,
				FieldSortOrder, FieldCondition, FieldQuantity, FieldFinalLength, FieldRoughLength,
				FieldWidth, FieldThickness, FieldMaterial, FieldComment},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := Plan(tt.item)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if len(steps) != len(tt.fields) {
				t.Fatalf("Expected %d steps, got %d", len(tt.fields), len(steps))
			}
			for i, f := range tt.fields {
				if steps[i].Field != f {
					t.Errorf("Step %d: expected %s, got %s", i, f, steps[i].Field)
				}
			}
		})
	}
}

func TestTimberSkipsEmptyMaterial(t *testing.T) {
	l := DefaultLayouts()[catalog.FamilyTimber]
	page := browsertest.New()

	rule := catalog.TimberRule{Component: "Head", Group: "Frame", Active: "Yes", Stocked: "No"}
	tally := New(page, l, testOptions(&recordingSleeper{})).Run(context.Background(), []catalog.Item{rule}, progress.Nop{})

	if tally.Succeeded != 1 {
		t.Fatalf("Expected rule to import, got %+v", tally)
	}
	if page.Called("select", l.Fields[FieldMaterial]) {
		t.Error("Expected empty material to be left alone")
	}
	if !page.Checked[l.Fields[FieldActive]] || page.Checked[l.Fields[FieldStocked]] {
		t.Errorf("Unexpected checkbox state: %+v", page.Checked)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tally := New(browsertest.New(), glassLayout(), testOptions(&recordingSleeper{})).Run(ctx, glassItems(3), progress.Nop{})
	if tally.Attempted != 0 || tally.Skipped != 3 {
		t.Errorf("Expected all items skipped, got %+v", tally)
	}
}

func TestTaskSetupErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, []byte("Part No,Name,Unit,Cost\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.csv")},
		{name: "header only", path: empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &Task{Family: catalog.FamilyGlass, CSVPath: tt.path, Layout: glassLayout(), Options: testOptions(&recordingSleeper{})}
			page := browsertest.New()
			err := tk.Execute(context.Background(), page, "https://crm.example.com", progress.Nop{})
			if !errors.Is(err, task.ErrSetup) {
				t.Errorf("Expected ErrSetup, got %v", err)
			}
			if len(page.Ops("goto")) != 0 {
				t.Error("Expected no navigation before input is valid")
			}
		})
	}
}

func TestTaskExecute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glass.csv")
	data := "Part No,Name,Unit,Cost,Obscure\nG-1,Clear,m2,10,No\nbad-row\nG-2,Satin,m2,12,Yes\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	l := glassLayout()
	page := glassPage(l)
	tk := &Task{Family: catalog.FamilyGlass, CSVPath: path, Layout: l, Options: testOptions(&recordingSleeper{})}

	if err := tk.Execute(context.Background(), page, "https://crm.example.com/", progress.Nop{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if page.Current != "https://crm.example.com/stock/glass" {
		t.Errorf("Unexpected list URL %s", page.Current)
	}
	if tk.Tally().Succeeded != 2 {
		t.Errorf("Expected 2 imported, got %+v", tk.Tally())
	}
	if tk.malformed != 1 {
		t.Errorf("Expected 1 malformed row, got %d", tk.malformed)
	}
	if tk.Name() != "import-glass" {
		t.Errorf("Unexpected task name %s", tk.Name())
	}
}
