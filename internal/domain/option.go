package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

type OptionType string

const (
	OptionDropdown OptionType = "dropdown"
	OptionRadio    OptionType = "radio"
	OptionCheckbox OptionType = "checkbox"
	OptionText     OptionType = "text"
	OptionNumber   OptionType = "number"
	OptionColor    OptionType = "color"
)

// Selectable reports whether values must come from the definition's value list.
func (t OptionType) Selectable() bool {
	switch t {
	case OptionDropdown, OptionRadio, OptionCheckbox, OptionColor:
		return true
	}
	return false
}

type OptionValueDefinition struct {
	Value         string        `json:"value"`
	Label         LocalizedText `json:"label,omitempty"`
	PriceModifier Money         `json:"priceModifier"`
	ColorCode     string        `json:"colorCode,omitempty"`
}

type OptionValidation struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

// ProductOptionDefinition describes one configurable option of a product.
// Order fixes the evaluation and rendering sequence.
type ProductOptionDefinition struct {
	ID         string                  `json:"id"`
	Type       OptionType              `json:"type"`
	Name       LocalizedText           `json:"name"`
	Label      LocalizedText           `json:"label,omitempty"`
	Required   bool                    `json:"required"`
	Values     []OptionValueDefinition `json:"values,omitempty"`
	Validation *OptionValidation       `json:"validation,omitempty"`
	Order      int                     `json:"order"`
}

// FindValue looks up a selectable value by its value or any of its labels.
func (d ProductOptionDefinition) FindValue(v string) (OptionValueDefinition, bool) {
	for _, def := range d.Values {
		if def.Value == v {
			return def, true
		}
	}
	for _, def := range d.Values {
		for _, label := range def.Label {
			if label != "" && label == v {
				return def, true
			}
		}
	}
	return OptionValueDefinition{}, false
}

// SortOptionDefinitions returns a copy of defs ordered by Order, stable on ties.
func SortOptionDefinitions(defs []ProductOptionDefinition) []ProductOptionDefinition {
	out := make([]ProductOptionDefinition, len(defs))
	copy(out, defs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// OptionValue is either a single value (dropdown, radio, color, text, number)
// or a list of values (checkbox). It decodes from a JSON string, number, or array.
type OptionValue struct {
	single string
	multi  []string
	isList bool
}

func SingleValue(v string) OptionValue {
	return OptionValue{single: v}
}

func ListValue(vs ...string) OptionValue {
	return OptionValue{multi: append([]string(nil), vs...), isList: true}
}

func (v OptionValue) IsList() bool {
	return v.isList
}

// Values returns the selected values; a single value yields a one-element slice,
// an empty single value yields none.
func (v OptionValue) Values() []string {
	if v.isList {
		return append([]string(nil), v.multi...)
	}
	if v.single == "" {
		return nil
	}
	return []string{v.single}
}

func (v OptionValue) IsEmpty() bool {
	return len(v.Values()) == 0
}

func (v OptionValue) Equal(o OptionValue) bool {
	return v.isList == o.isList && slices.Equal(v.Values(), o.Values())
}

func (v OptionValue) String() string {
	if v.isList {
		return strings.Join(v.multi, ", ")
	}
	return v.single
}

func (v OptionValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.multi)
	}
	return json.Marshal(v.single)
}

func (v *OptionValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*v = OptionValue{}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("option value list: %w", err)
		}
		*v = ListValue(list...)
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = SingleValue(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("option value: %w", err)
		}
		*v = SingleValue(n.String())
		return nil
	}
}

// SelectedOption is a snapshot of one choice made when the line was added.
// PriceModifier is frozen at selection time; for checkbox lists it is the sum
// of the chosen values' modifiers.
type SelectedOption struct {
	OptionID      string      `json:"optionId"`
	OptionName    string      `json:"optionName"`
	Type          OptionType  `json:"type,omitempty"`
	Value         OptionValue `json:"value"`
	PriceModifier Money       `json:"priceModifier"`
}
