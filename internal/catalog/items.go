package catalog

import "strings"

// Family identifies which catalog an item belongs to.
type Family string

const (
	FamilyGlass       Family = "glass"
	FamilyIronmongery Family = "ironmongery"
	FamilyTimber      Family = "timber"
)

// Item is one importable catalog row.
type Item interface {
	// Key identifies the item in logs and failure reports.
	Key() string
	Family() Family
}

// GlassItem is a glass pane type.
// Columns: partNo, partName, unit, cost, obscure?
type GlassItem struct {
	PartNumber string `yaml:"part_number"`
	Name       string `yaml:"name"`
	Unit       string `yaml:"unit"`
	Cost       string `yaml:"cost"`
	Obscure    string `yaml:"obscure"` // "Yes" or "No"
}

func (g GlassItem) Key() string    { return g.PartNumber }
func (g GlassItem) Family() Family { return FamilyGlass }

// IsObscure reports whether the obscure-glass flag should be ticked. Only a
// literal "yes" counts.
func (g GlassItem) IsObscure() bool {
	return strings.EqualFold(strings.TrimSpace(g.Obscure), "yes")
}

// IronmongeryItem is an ironmongery fitting.
// Columns: partNo, name, cost, unit, type, notes?
type IronmongeryItem struct {
	PartNumber string `yaml:"part_number"`
	Name       string `yaml:"name"`
	Cost       string `yaml:"cost"`
	Unit       string `yaml:"unit"`
	Type       string `yaml:"type"`
	Notes      string `yaml:"notes"`
}

func (i IronmongeryItem) Key() string    { return i.PartNumber }
func (i IronmongeryItem) Family() Family { return FamilyIronmongery }

// TimberRule is one timber cutting rule.
type TimberRule struct {
	Component   string `yaml:"component"`
	Group       string `yaml:"group"`
	Loop        string `yaml:"loop"`
	Active      string `yaml:"active"`
	Stocked     string `yaml:"stocked"`
	SortOrder   string `yaml:"sort_order"`
	Condition   string `yaml:"condition"`
	Quantity    string `yaml:"quantity"`
	FinalLength string `yaml:"final_length"`
	RoughLength string `yaml:"rough_length"`
	Width       string `yaml:"width"`
	Thickness   string `yaml:"thickness"`
	Material    string `yaml:"material"`
	Comment     string `yaml:"comment"`
}

func (t TimberRule) Key() string    { return t.Group + "/" + t.Component }
func (t TimberRule) Family() Family { return FamilyTimber }

// TimberColumns lists the timber rule CSV columns in file order.
var TimberColumns = []string{
	"Component", "Group", "Loop", "Active", "Stocked", "SortOrder", "Condition",
	"Quantity", "FinalLength", "RoughLength", "Width", "Thickness", "Material", "Comment",
}

// IsYes reports whether a boolean-like CSV value means true.
func IsYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// Items converts a typed slice into the Item interface slice the importer
// consumes.
func Items[T Item](in []T) []Item {
	out := make([]Item, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
