package pricing

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

// SelectOptions turns a buyer's choices (option id -> value) into the
// SelectedOption snapshots stored on a cart line. Modifiers are copied from the
// product's definitions so the line keeps the price it was added at.
// Results follow the definitions' Order.
func SelectOptions(product domain.Product, choices map[string]domain.OptionValue) ([]domain.SelectedOption, error) {
	defs := domain.SortOptionDefinitions(product.ProductOptions)
	known := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		known[def.ID] = struct{}{}
	}
	for id := range choices {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%s: %w", id, ErrUnknownOption)
		}
	}

	selected := make([]domain.SelectedOption, 0, len(choices))
	for _, def := range defs {
		choice, ok := choices[def.ID]
		if !ok || choice.IsEmpty() {
			if def.Required {
				return nil, fmt.Errorf("%s: %w", optionLabel(def), ErrRequiredOption)
			}
			continue
		}

		opt, err := selectOne(def, choice)
		if err != nil {
			return nil, err
		}
		selected = append(selected, opt)
	}
	return selected, nil
}

// CheckRequired reports the first required option of product that item has no
// selection for. Selections match a definition by id, or by any of its names
// for lines stored in the legacy free-form shape.
func CheckRequired(item domain.CartItem, product domain.Product) error {
	chosen := make(map[string]struct{})
	for _, opt := range NormalizeOptions(item) {
		if opt.Value.IsEmpty() {
			continue
		}
		chosen[opt.OptionID] = struct{}{}
		chosen[opt.OptionName] = struct{}{}
	}
	for _, def := range domain.SortOptionDefinitions(product.ProductOptions) {
		if !def.Required || hasSelection(chosen, def) {
			continue
		}
		return fmt.Errorf("%s: %w", optionLabel(def), ErrRequiredOption)
	}
	return nil
}

func hasSelection(chosen map[string]struct{}, def domain.ProductOptionDefinition) bool {
	if _, ok := chosen[def.ID]; ok {
		return true
	}
	for _, name := range def.Name {
		if _, ok := chosen[name]; ok && name != "" {
			return true
		}
	}
	return false
}

func selectOne(def domain.ProductOptionDefinition, choice domain.OptionValue) (domain.SelectedOption, error) {
	opt := domain.SelectedOption{
		OptionID:      def.ID,
		OptionName:    optionLabel(def),
		Type:          def.Type,
		PriceModifier: decimal.Zero,
	}

	values := choice.Values()
	switch {
	case def.Type == domain.OptionCheckbox:
		mod := decimal.Zero
		picked := make([]string, 0, len(values))
		for _, v := range values {
			vd, ok := def.FindValue(v)
			if !ok {
				return opt, fmt.Errorf("%s=%q: %w", opt.OptionName, v, ErrUnknownValue)
			}
			mod = mod.Add(vd.PriceModifier)
			picked = append(picked, vd.Value)
		}
		opt.Value = domain.ListValue(picked...)
		opt.PriceModifier = mod
	case def.Type.Selectable():
		if len(values) != 1 {
			return opt, fmt.Errorf("%s: exactly one value expected: %w", opt.OptionName, ErrInvalidValue)
		}
		vd, ok := def.FindValue(values[0])
		if !ok {
			return opt, fmt.Errorf("%s=%q: %w", opt.OptionName, values[0], ErrUnknownValue)
		}
		opt.Value = domain.SingleValue(vd.Value)
		opt.PriceModifier = vd.PriceModifier
	default:
		if len(values) != 1 {
			return opt, fmt.Errorf("%s: exactly one value expected: %w", opt.OptionName, ErrInvalidValue)
		}
		if err := validateFree(def, values[0]); err != nil {
			return opt, fmt.Errorf("%s: %w", opt.OptionName, err)
		}
		opt.Value = domain.SingleValue(values[0])
		// Free-form options may still carry a flat surcharge as their first value.
		if len(def.Values) > 0 {
			opt.PriceModifier = def.Values[0].PriceModifier
		}
	}
	return opt, nil
}

func validateFree(def domain.ProductOptionDefinition, v string) error {
	rules := def.Validation
	if def.Type == domain.OptionNumber {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number: %w", v, ErrInvalidValue)
		}
		if rules != nil && rules.Min != nil && n < *rules.Min {
			return fmt.Errorf("%v below minimum %v: %w", n, *rules.Min, ErrInvalidValue)
		}
		if rules != nil && rules.Max != nil && n > *rules.Max {
			return fmt.Errorf("%v above maximum %v: %w", n, *rules.Max, ErrInvalidValue)
		}
		return nil
	}
	if rules == nil {
		return nil
	}
	length := float64(len([]rune(v)))
	if rules.Min != nil && length < *rules.Min {
		return fmt.Errorf("text shorter than %v: %w", *rules.Min, ErrInvalidValue)
	}
	if rules.Max != nil && length > *rules.Max {
		return fmt.Errorf("text longer than %v: %w", *rules.Max, ErrInvalidValue)
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			// a broken pattern in the catalog should not block the purchase
			return nil
		}
		if !re.MatchString(v) {
			return fmt.Errorf("%q does not match %s: %w", v, rules.Pattern, ErrInvalidValue)
		}
	}
	return nil
}

// SelectAddOns picks the named add-ons from the product's additional services.
func SelectAddOns(product domain.Product, names []string) ([]domain.AddOn, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]domain.AddOn, 0, len(names))
	for _, name := range names {
		found := false
		for _, svc := range product.AdditionalServices {
			if svc.Name == name || (svc.NameEn != "" && svc.NameEn == name) || (svc.NameAr != "" && svc.NameAr == name) {
				if svc.Price.IsNegative() {
					return nil, fmt.Errorf("%s: %w", name, ErrNegativeAddOn)
				}
				out = append(out, svc)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: %w", name, ErrUnknownAddOn)
		}
	}
	return out, nil
}

func optionLabel(def domain.ProductOptionDefinition) string {
	if name := def.Name.In("en"); name != "" {
		return name
	}
	return def.ID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
