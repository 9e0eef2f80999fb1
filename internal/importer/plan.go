package importer

import (
	"fmt"
	"strings"

	"github.com/glazing-tools/catalogpilot/internal/catalog"
)

// StepKind is how a value reaches its control.
type StepKind int

const (
	StepFill StepKind = iota
	StepSelect
	StepCheck
)

func (k StepKind) String() string {
	switch k {
	case StepFill:
		return "fill"
	case StepSelect:
		return "select"
	case StepCheck:
		return "check"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step sets one dialog control.
type Step struct {
	Field string
	Kind  StepKind
	Value string
	// Checked is used by StepCheck.
	Checked bool
	// UnitFallback lets a StepSelect fall back to the first option when Value
	// is not offered.
	UnitFallback bool
}

// allocatedUnit is what every stock item is allocated in.
const allocatedUnit = "each"

// needsAllocation reports whether a purchase unit holds several allocatable
// pieces, which is when the dialog needs an allocation quantity.
func needsAllocation(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "pair", "set", "roll":
		return true
	}
	return false
}

func fill(field, value string) Step {
	return Step{Field: field, Kind: StepFill, Value: value}
}

func choose(field, value string) Step {
	return Step{Field: field, Kind: StepSelect, Value: value}
}

func unit(field, value string) Step {
	return Step{Field: field, Kind: StepSelect, Value: value, UnitFallback: true}
}

func check(field string, checked bool) Step {
	return Step{Field: field, Kind: StepCheck, Checked: checked}
}

// unitSteps are shared by the glass and ironmongery dialogs.
func unitSteps(u string) []Step {
	steps := []Step{
		unit(FieldUnit, u),
		unit(FieldAllocatedUnit, allocatedUnit),
	}
	if needsAllocation(u) {
		steps = append(steps, fill(FieldAllocationQty, "1"))
	}
	return steps
}

// Plan lists the dialog steps for item in the order the dialog expects them.
func Plan(item catalog.Item) ([]Step, error) {
	switch it := item.(type) {
	case catalog.GlassItem:
		steps := []Step{
			fill(FieldPartNumber, it.PartNumber),
			fill(FieldName, it.Name),
		}
		steps = append(steps, unitSteps(it.Unit)...)
		return append(steps,
			fill(FieldCost, it.Cost),
			check(FieldObscure, it.IsObscure()),
		), nil

	case catalog.IronmongeryItem:
		steps := []Step{
			fill(FieldPartNumber, it.PartNumber),
			fill(FieldName, it.Name),
		}
		steps = append(steps, unitSteps(it.Unit)...)
		return append(steps,
			fill(FieldCost, it.Cost),
			choose(FieldType, it.Type),
			fill(FieldNotes, it.Notes),
		), nil

	case catalog.TimberRule:
		return []Step{
			fill(FieldComponent, it.Component),
			choose(FieldGroup, it.Group),
			fill(FieldLoop, it.Loop),
			check(FieldActive, catalog.IsYes(it.Active)),
			check(FieldStocked, catalog.IsYes(it.Stocked)),
			fill(FieldSortOrder, it.SortOrder),
			fill(FieldCondition, it.Condition),
			fill(FieldQuantity, it.Quantity),
			fill(FieldFinalLength, it.FinalLength),
			fill(FieldRoughLength, it.RoughLength),
			fill(FieldWidth, it.Width),
			fill(FieldThickness, it.Thickness),
			choose(FieldMaterial, it.Material),
			fill(FieldComment, it.Comment),
		}, nil
	}
	return nil, fmt.Errorf("no import plan for item type %T", item)
}
