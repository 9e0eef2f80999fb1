package importer

import (
	"fmt"

	"github.com/glazing-tools/catalogpilot/internal/catalog"
)

// Field names used as keys of Layout.Fields.
const (
	FieldPartNumber    = "part_number"
	FieldName          = "name"
	FieldUnit          = "unit"
	FieldAllocatedUnit = "allocated_unit"
	FieldAllocationQty = "allocation_qty"
	FieldCost          = "cost"
	FieldObscure       = "obscure"
	FieldType          = "type"
	FieldNotes         = "notes"
	FieldComponent     = "component"
	FieldGroup         = "group"
	FieldLoop          = "loop"
	FieldActive        = "active"
	FieldStocked       = "stocked"
	FieldSortOrder     = "sort_order"
	FieldCondition     = "condition"
	FieldQuantity      = "quantity"
	FieldFinalLength   = "final_length"
	FieldRoughLength   = "rough_length"
	FieldWidth         = "width"
	FieldThickness     = "thickness"
	FieldMaterial      = "material"
	FieldComment       = "comment"
)

// Layout locates the part list page and its add dialog for one family.
type Layout struct {
	ListPath  string            `yaml:"list_path"`
	AddButton string            `yaml:"add_button"`
	Dialog    string            `yaml:"dialog"`
	Submit    string            `yaml:"submit"`
	Close     string            `yaml:"close"`
	Fields    map[string]string `yaml:"fields"`
}

// Selector returns the selector configured for field.
func (l Layout) Selector(field string) (string, error) {
	sel, ok := l.Fields[field]
	if !ok || sel == "" {
		return "", fmt.Errorf("no selector configured for field %q", field)
	}
	return sel, nil
}

func dialogFields(prefix string, names ...string) map[string]string {
	fields := make(map[string]string, len(names))
	for _, name := range names {
		fields[name] = fmt.Sprintf("%s [name=%q]", prefix, name)
	}
	return fields
}

// DefaultLayouts returns the selectors of the stock vendor UI.
func DefaultLayouts() map[catalog.Family]Layout {
	const dialog = "div.modal.add-part"
	return map[catalog.Family]Layout{
		catalog.FamilyGlass: {
			ListPath:  "/stock/glass",
			AddButton: "button#addGlass",
			Dialog:    dialog,
			Submit:    dialog + " button[type=submit]",
			Close:     dialog + " button.close",
			Fields: dialogFields(dialog,
				FieldPartNumber, FieldName, FieldUnit, FieldAllocatedUnit,
				FieldAllocationQty, FieldCost, FieldObscure),
		},
		catalog.FamilyIronmongery: {
			ListPath:  "/stock/ironmongery",
			AddButton: "button#addIronmongery",
			Dialog:    dialog,
			Submit:    dialog + " button[type=submit]",
			Close:     dialog + " button.close",
			Fields: dialogFields(dialog,
				FieldPartNumber, FieldName, FieldUnit, FieldAllocatedUnit,
				FieldAllocationQty, FieldCost, FieldType, FieldNotes),
		},
		catalog.FamilyTimber: {
			ListPath:  "/settings/timber-rules",
			AddButton: "button#addTimberRule",
			Dialog:    "div.modal.timber-rule",
			Submit:    "div.modal.timber-rule button[type=submit]",
			Close:     "div.modal.timber-rule button.close",
			Fields: dialogFields("div.modal.timber-rule",
				FieldComponent, FieldGroup, FieldLoop, FieldActive, FieldStocked,
				FieldSortOrder, FieldCondition, FieldQuantity, FieldFinalLength,
				FieldRoughLength, FieldWidth, FieldThickness, FieldMaterial,
				FieldComment),
		},
	}
}
