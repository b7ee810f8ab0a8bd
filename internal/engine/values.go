package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Script values are int64, float64, string, bool, nil, []any,
// map[string]any and callables.

type callable interface {
	call(in *interp, args []any, kwargs map[string]any) (any, error)
}

type builtin struct {
	name string
	fn   func(in *interp, args []any, kwargs map[string]any) (any, error)
}

func (b *builtin) call(in *interp, args []any, kwargs map[string]any) (any, error) {
	return b.fn(in, args, kwargs)
}

// method is a builtin bound to a receiver, e.g. "x".upper.
type method struct {
	name string
	recv any
	fn   func(recv any, args []any, kwargs map[string]any) (any, error)
}

func (m *method) call(_ *interp, args []any, kwargs map[string]any) (any, error) {
	return m.fn(m.recv, args, kwargs)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	case *gatewayObject:
		return "OdooGateway"
	case callable:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			i, err := floatToInt(n)
			return i, err == nil
		}
	}
	return 0, false
}

// isEmpty reports Odoo's "no value": None, or False on an unset field.
// Zero and the empty string are values.
func isEmpty(v any) bool {
	return v == nil || v == false
}

var errIntOverflow = fmt.Errorf("integer overflow")

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot convert float %s to integer", formatFloat(f))
	}
	// 2^63 is exactly representable; anything at or above it does not fit
	if f >= 9223372036854775808.0 || f < -9223372036854775808.0 {
		return 0, errIntOverflow
	}
	return int64(f), nil
}

func addInt(a, b int64) (int64, error) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, errIntOverflow
	}
	return c, nil
}

func subInt(a, b int64) (int64, error) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, errIntOverflow
	}
	return c, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, errIntOverflow
	}
	return c, nil
}

// str renders like print does: strings bare, everything else as repr.
func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

func repr(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return formatFloat(t)
	case string:
		return "'" + strings.ReplaceAll(t, "'", `\'`) + "'"
	case []any:
		parts := make([]string, len(t))
		for i, el := range t {
			parts[i] = repr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := sortedKeys(t)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = repr(k) + ": " + repr(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *gatewayObject:
		return "<odoo gateway>"
	case *builtin:
		return "<built-in function " + t.name + ">"
	case *method:
		return "<method " + t.name + ">"
	case *searchReadMethod:
		return "<method search_read>"
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	case f == math.Trunc(f) && math.Abs(f) < 1e16:
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyString turns a value into a dict key. Many2one pairs key by name.
func keyString(v any) string {
	if name, ok := many2oneName(v); ok {
		return name
	}
	return str(v)
}

// many2oneName recognises Odoo's [id, "Display Name"] pairs.
func many2oneName(v any) (string, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return "", false
	}
	if _, ok := toInt(pair[0]); !ok {
		return "", false
	}
	name, ok := pair[1].(string)
	return name, ok
}

// normalize strips anything that cannot leave the engine.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, int64, string:
		return t
	case float64:
		// NaN and infinities have no JSON form
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case int:
		return int64(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalize(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = normalize(el)
		}
		return out
	default:
		return repr(t)
	}
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !equal(v, w) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// compare orders numbers numerically and strings lexically.
func compare(a, b any) (int, error) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb), nil
		}
	}
	if na, ok := many2oneName(a); ok {
		return compare(na, b)
	}
	if nb, ok := many2oneName(b); ok {
		return compare(a, nb)
	}
	return 0, fmt.Errorf("cannot compare '%s' and '%s'", typeName(a), typeName(b))
}

func contains(container, item any) (bool, error) {
	switch c := container.(type) {
	case []any:
		for _, el := range c {
			if equal(el, item) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		_, ok := c[keyString(item)]
		return ok, nil
	case string:
		s, ok := item.(string)
		if !ok {
			return false, fmt.Errorf("'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	default:
		return false, fmt.Errorf("argument of type '%s' is not iterable", typeName(container))
	}
}

func unary(op string, v any) (any, error) {
	switch op {
	case "not":
		return !truthy(v), nil
	case "-":
		switch n := v.(type) {
		case int64:
			if n == math.MinInt64 {
				return nil, errIntOverflow
			}
			return -n, nil
		case float64:
			return -n, nil
		}
	case "+":
		switch v.(type) {
		case int64, float64:
			return v, nil
		}
	}
	return nil, fmt.Errorf("bad operand type for unary %s: '%s'", op, typeName(v))
}

func binaryOp(op string, x, y any) (any, error) {
	switch op {
	case "==":
		return equal(x, y), nil
	case "!=":
		return !equal(x, y), nil
	case "<", "<=", ">", ">=":
		c, err := compare(x, y)
		if err != nil {
			return nil, fmt.Errorf("'%s' not supported between instances of '%s' and '%s'", op, typeName(x), typeName(y))
		}
		switch op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "in":
		return contains(y, x)
	case "not in":
		ok, err := contains(y, x)
		return !ok, err
	}

	if op == "+" {
		switch a := x.(type) {
		case string:
			if b, ok := y.(string); ok {
				return a + b, nil
			}
		case []any:
			if b, ok := y.([]any); ok {
				out := make([]any, 0, len(a)+len(b))
				return append(append(out, a...), b...), nil
			}
		}
	}

	ia, aInt := x.(int64)
	ib, bInt := y.(int64)
	if aInt && bInt && op != "/" {
		switch op {
		case "+":
			return addInt(ia, ib)
		case "-":
			return subInt(ia, ib)
		case "*":
			return mulInt(ia, ib)
		case "%":
			if ib == 0 {
				return nil, fmt.Errorf("integer modulo by zero")
			}
			m := ia % ib
			if m != 0 && (m < 0) != (ib < 0) {
				m += ib
			}
			return m, nil
		}
	}

	fa, okA := toFloat(x)
	fb, okB := toFloat(y)
	if !okA || !okB {
		return nil, fmt.Errorf("unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(x), typeName(y))
	}
	switch op {
	case "+":
		return fa + fb, nil
	case "-":
		return fa - fb, nil
	case "*":
		return fa * fb, nil
	case "/":
		if fb == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return fa / fb, nil
	case "%":
		if fb == 0 {
			return nil, fmt.Errorf("float modulo by zero")
		}
		return math.Mod(fa, fb), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func index(recv, idx any) (any, error) {
	switch r := recv.(type) {
	case []any:
		i, ok := toInt(idx)
		if !ok {
			return nil, fmt.Errorf("list indices must be integers, not %s", typeName(idx))
		}
		if i < 0 {
			i += int64(len(r))
		}
		if i < 0 || i >= int64(len(r)) {
			return nil, fmt.Errorf("list index out of range")
		}
		return r[i], nil
	case map[string]any:
		k := keyString(idx)
		v, ok := r[k]
		if !ok {
			return nil, fmt.Errorf("key %s not found", repr(k))
		}
		return v, nil
	case string:
		i, ok := toInt(idx)
		if !ok {
			return nil, fmt.Errorf("string indices must be integers, not %s", typeName(idx))
		}
		runes := []rune(r)
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return nil, fmt.Errorf("string index out of range")
		}
		return string(runes[i]), nil
	default:
		return nil, fmt.Errorf("'%s' object is not subscriptable", typeName(recv))
	}
}
