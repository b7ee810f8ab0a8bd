package odoo

import "fmt"

// Domain is an Odoo search domain in prefix notation: a list whose items are
// either (field, operator, value) conditions or the logical operators
// "&", "|" and "!". Adjacent conditions are implicitly AND-ed.
type Domain []any

var conditionOperators = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
	"like": true, "ilike": true, "not like": true, "not ilike": true,
	"=like": true, "=ilike": true, "in": true, "not in": true,
	"child_of": true, "parent_of": true,
}

// Condition builds one (field, operator, value) term.
func Condition(field, operator string, value any) []any {
	return []any{field, operator, value}
}

// Validate checks each item's shape and that the prefix operators have
// enough operands.
func (d Domain) Validate() error {
	// Walk right to left counting complete terms on a virtual stack.
	terms := 0
	for i := len(d) - 1; i >= 0; i-- {
		switch item := d[i].(type) {
		case string:
			switch item {
			case "&", "|":
				if terms < 2 {
					return fmt.Errorf("domain item %d: operator %q needs two operands", i, item)
				}
				terms--
			case "!":
				if terms < 1 {
					return fmt.Errorf("domain item %d: operator %q needs one operand", i, item)
				}
			default:
				return fmt.Errorf("domain item %d: unknown logical operator %q", i, item)
			}
		case []any:
			if err := validateCondition(item); err != nil {
				return fmt.Errorf("domain item %d: %w", i, err)
			}
			terms++
		default:
			return fmt.Errorf("domain item %d: expected condition or operator, got %T", i, item)
		}
	}
	return nil
}

func validateCondition(c []any) error {
	if len(c) != 3 {
		return fmt.Errorf("condition must have 3 elements, got %d", len(c))
	}
	field, ok := c[0].(string)
	if !ok || field == "" {
		return fmt.Errorf("condition field must be a non-empty string")
	}
	op, ok := c[1].(string)
	if !ok || !conditionOperators[op] {
		return fmt.Errorf("unsupported operator %v", c[1])
	}
	return nil
}

// Args returns the domain as a plain list for the wire.
func (d Domain) Args() []any {
	out := make([]any, len(d))
	copy(out, d)
	return out
}
