package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// unset marks an optional parameter the caller did not pass.
type unsetArg struct{}

var unset = unsetArg{}

func isUnset(v any) bool {
	_, ok := v.(unsetArg)
	return ok
}

func orNil(v any) any {
	if isUnset(v) {
		return nil
	}
	return v
}

// bindArgs maps positional and keyword arguments onto params. The first
// required params must be present; the rest default to unset.
func bindArgs(name string, args []any, kwargs map[string]any, params []string, required int) ([]any, error) {
	if len(args) > len(params) {
		return nil, fmt.Errorf("%s() takes at most %d arguments (%d given)", name, len(params), len(args))
	}
	out := make([]any, len(params))
	for i := range out {
		out[i] = unset
	}
	copy(out, args)
	for k, v := range kwargs {
		idx := -1
		for i, p := range params {
			if p == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%s() got an unexpected keyword argument '%s'", name, k)
		}
		if idx < len(args) {
			return nil, fmt.Errorf("%s() got multiple values for argument '%s'", name, k)
		}
		out[idx] = v
	}
	for i := 0; i < required; i++ {
		if isUnset(out[i]) {
			return nil, fmt.Errorf("%s() missing required argument '%s'", name, params[i])
		}
	}
	return out, nil
}

func argString(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s expects a string, got %s", fn, typeName(v))
	}
	return s, nil
}

func argList(fn string, v any) ([]any, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s expects a list, got %s", fn, typeName(v))
	}
	return l, nil
}

func argInt(fn string, v any) (int64, error) {
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%s expects an integer, got %s", fn, typeName(v))
	}
	return n, nil
}

func newNamespace(gw Gateway) map[string]any {
	ns := map[string]any{
		GatewayName: &gatewayObject{gw: gw},
	}
	for _, b := range builtins {
		ns[b.name] = b
	}
	return ns
}

var builtins []*builtin

func init() {
	builtins = []*builtin{
		{name: "print", fn: builtinPrint},
		{name: "len", fn: builtinLen},
		{name: "str", fn: builtinStr},
		{name: "int", fn: builtinInt},
		{name: "float", fn: builtinFloat},
		{name: "round", fn: builtinRound},
		{name: "sum", fn: aggregate("sum")},
		{name: "avg", fn: aggregate("avg")},
		{name: "min", fn: aggregate("min")},
		{name: "max", fn: aggregate("max")},
		{name: "pluck", fn: builtinPluck},
		{name: "select", fn: builtinSelect},
		{name: "where", fn: builtinWhere},
		{name: "sort_by", fn: builtinSortBy},
		{name: "head", fn: builtinHead},
		{name: "unique", fn: builtinUnique},
		{name: "group_count", fn: builtinGroupCount},
		{name: "group_sum", fn: builtinGroupSum},
		{name: "name_of", fn: builtinNameOf},
		{name: "today", fn: dateHelper(func(t time.Time, _ int64) string { return t.Format(dateLayout) }, false)},
		{name: "now", fn: dateHelper(func(t time.Time, _ int64) string { return t.Format(datetimeLayout) }, false)},
		{name: "days_ago", fn: dateHelper(func(t time.Time, n int64) string { return t.AddDate(0, 0, -int(n)).Format(dateLayout) }, true)},
		{name: "days_ahead", fn: dateHelper(func(t time.Time, n int64) string { return t.AddDate(0, 0, int(n)).Format(dateLayout) }, true)},
		{name: "start_of_month", fn: dateHelper(func(t time.Time, _ int64) string {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).Format(dateLayout)
		}, false)},
		{name: "start_of_year", fn: dateHelper(func(t time.Time, _ int64) string {
			return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location()).Format(dateLayout)
		}, false)},
	}
}

// Odoo's server-side date formats.
const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

func builtinPrint(in *interp, args []any, kwargs map[string]any) (any, error) {
	sep, end := " ", "\n"
	for k, v := range kwargs {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("print() %s must be a string", k)
		}
		switch k {
		case "sep":
			sep = s
		case "end":
			end = s
		default:
			return nil, fmt.Errorf("print() got an unexpected keyword argument '%s'", k)
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = str(a)
	}
	in.out.WriteString(strings.Join(parts, sep))
	in.out.WriteString(end)
	return nil, nil
}

func builtinLen(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("len", args, kwargs, []string{"obj"}, 1)
	if err != nil {
		return nil, err
	}
	switch v := a[0].(type) {
	case []any:
		return int64(len(v)), nil
	case map[string]any:
		return int64(len(v)), nil
	case string:
		return int64(len([]rune(v))), nil
	}
	return nil, fmt.Errorf("object of type '%s' has no len()", typeName(a[0]))
}

func builtinStr(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("str", args, kwargs, []string{"obj"}, 0)
	if err != nil {
		return nil, err
	}
	if isUnset(a[0]) {
		return "", nil
	}
	return str(a[0]), nil
}

func builtinInt(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("int", args, kwargs, []string{"x"}, 1)
	if err != nil {
		return nil, err
	}
	switch v := a[0].(type) {
	case int64:
		return v, nil
	case float64:
		return floatToInt(math.Trunc(v))
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int(): %s", repr(v))
		}
		return n, nil
	}
	return nil, fmt.Errorf("int() argument must be a string or a number, not '%s'", typeName(a[0]))
}

func builtinFloat(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("float", args, kwargs, []string{"x"}, 1)
	if err != nil {
		return nil, err
	}
	if f, ok := toFloat(a[0]); ok {
		return f, nil
	}
	if s, ok := a[0].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert string to float: %s", repr(s))
		}
		return f, nil
	}
	return nil, fmt.Errorf("float() argument must be a string or a number, not '%s'", typeName(a[0]))
}

// round(x) returns an int; round(x, n) a float with n decimals.
func builtinRound(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("round", args, kwargs, []string{"number", "ndigits"}, 1)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(a[0])
	if !ok {
		return nil, fmt.Errorf("round() expects a number, got %s", typeName(a[0]))
	}
	if isUnset(a[1]) || a[1] == nil {
		return floatToInt(math.RoundToEven(f))
	}
	n, err := argInt("round", a[1])
	if err != nil {
		return nil, err
	}
	p := math.Pow(10, float64(n))
	return math.Round(f*p) / p, nil
}

// values resolves the (list) or (records, field) calling convention
// shared by the aggregate and grouping helpers.
func values(fn string, list, field any) ([]any, error) {
	items, err := argList(fn, list)
	if err != nil {
		return nil, err
	}
	if isUnset(field) || field == nil {
		return items, nil
	}
	name, err := argString(fn, field)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for i, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: item %d is a %s, not a record", fn, i, typeName(it))
		}
		v, ok := rec[name]
		if !ok {
			return nil, fmt.Errorf("%s: record has no field '%s'", fn, name)
		}
		out = append(out, v)
	}
	return out, nil
}

func aggregate(kind string) func(*interp, []any, map[string]any) (any, error) {
	return func(_ *interp, args []any, kwargs map[string]any) (any, error) {
		var vals []any
		if len(args) > 0 && len(kwargs) == 0 {
			if _, isList := args[0].([]any); !isList && (kind == "min" || kind == "max") && len(args) > 1 {
				// min(a, b, ...)
				vals = args
			}
		}
		if vals == nil {
			a, err := bindArgs(kind, args, kwargs, []string{"items", "field"}, 1)
			if err != nil {
				return nil, err
			}
			vals, err = values(kind, a[0], a[1])
			if err != nil {
				return nil, err
			}
		}

		switch kind {
		case "sum", "avg":
			var total float64
			allInt := true
			var intTotal int64
			n := 0
			for _, v := range vals {
				if isEmpty(v) {
					continue // Odoo sends False for empty numeric fields
				}
				f, ok := toFloat(v)
				if !ok {
					return nil, fmt.Errorf("%s: unsupported value of type '%s'", kind, typeName(v))
				}
				if i, ok := v.(int64); ok && allInt && kind == "sum" {
					sum, err := addInt(intTotal, i)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", kind, err)
					}
					intTotal = sum
				} else {
					allInt = false
				}
				total += f
				n++
			}
			if kind == "avg" {
				if n == 0 {
					return nil, nil
				}
				return total / float64(n), nil
			}
			if allInt {
				return intTotal, nil
			}
			return total, nil
		default:
			var best any
			for _, v := range vals {
				if isEmpty(v) {
					continue
				}
				if best == nil {
					best = v
					continue
				}
				c, err := compare(v, best)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", kind, err)
				}
				if (kind == "min" && c < 0) || (kind == "max" && c > 0) {
					best = v
				}
			}
			return best, nil
		}
	}
}

func builtinPluck(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("pluck", args, kwargs, []string{"records", "field"}, 2)
	if err != nil {
		return nil, err
	}
	return values("pluck", a[0], a[1])
}

func builtinSelect(_ *interp, args []any, _ map[string]any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("select() expects records and at least one field")
	}
	items, err := argList("select", args[0])
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(args)-1)
	for _, f := range args[1:] {
		name, err := argString("select", f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, name)
	}
	out := make([]any, 0, len(items))
	for i, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("select: item %d is a %s, not a record", i, typeName(it))
		}
		row := make(map[string]any, len(fields))
		for _, f := range fields {
			row[f] = rec[f]
		}
		out = append(out, row)
	}
	return out, nil
}

// where filters records in memory with the same operators as a domain.
func builtinWhere(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("where", args, kwargs, []string{"records", "field", "op", "value"}, 4)
	if err != nil {
		return nil, err
	}
	items, err := argList("where", a[0])
	if err != nil {
		return nil, err
	}
	field, err := argString("where", a[1])
	if err != nil {
		return nil, err
	}
	op, err := argString("where", a[2])
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("where: expected records, got %s", typeName(it))
		}
		ok, err := matches(rec[field], op, a[3])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func matches(v any, op string, want any) (bool, error) {
	switch op {
	case "=", "==":
		return equal(v, want) || equalName(v, want), nil
	case "!=":
		return !(equal(v, want) || equalName(v, want)), nil
	case ">", "<", ">=", "<=":
		c, err := compare(v, want)
		if err != nil {
			// empty (False) values never satisfy an ordering
			return false, nil
		}
		switch op {
		case ">":
			return c > 0, nil
		case "<":
			return c < 0, nil
		case ">=":
			return c >= 0, nil
		default:
			return c <= 0, nil
		}
	case "in", "not in":
		list, err := argList("where "+op, want)
		if err != nil {
			return false, err
		}
		found := false
		for _, el := range list {
			if equal(v, el) || equalName(v, el) {
				found = true
				break
			}
		}
		return found == (op == "in"), nil
	case "like", "ilike", "not like", "not ilike":
		s, ok := v.(string)
		if !ok {
			s, ok = many2oneName(v)
		}
		pat, err := argString("where "+op, want)
		if err != nil {
			return false, err
		}
		var hit bool
		if strings.HasSuffix(op, "ilike") {
			hit = ok && strings.Contains(strings.ToLower(s), strings.ToLower(pat))
		} else {
			hit = ok && strings.Contains(s, pat)
		}
		return hit != strings.HasPrefix(op, "not "), nil
	}
	return false, fmt.Errorf("where: unsupported operator '%s'", op)
}

func equalName(v, want any) bool {
	name, ok := many2oneName(v)
	if !ok {
		return false
	}
	s, ok := want.(string)
	return ok && s == name
}

func builtinSortBy(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("sort_by", args, kwargs, []string{"records", "field", "desc"}, 2)
	if err != nil {
		return nil, err
	}
	items, err := argList("sort_by", a[0])
	if err != nil {
		return nil, err
	}
	field, err := argString("sort_by", a[1])
	if err != nil {
		return nil, err
	}
	desc := truthy(orNil(a[2]))

	out := make([]any, len(items))
	copy(out, items)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		ri, _ := out[i].(map[string]any)
		rj, _ := out[j].(map[string]any)
		vi, vj := ri[field], rj[field]
		// empty values sort last either way
		if isEmpty(vi) || isEmpty(vj) {
			return !isEmpty(vi) && isEmpty(vj)
		}
		c, err := compare(vi, vj)
		if err != nil && sortErr == nil {
			sortErr = fmt.Errorf("sort_by: %w", err)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func builtinHead(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("head", args, kwargs, []string{"items", "n"}, 1)
	if err != nil {
		return nil, err
	}
	items, err := argList("head", a[0])
	if err != nil {
		return nil, err
	}
	n := int64(5)
	if !isUnset(a[1]) {
		if n, err = argInt("head", a[1]); err != nil {
			return nil, err
		}
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(items)) {
		n = int64(len(items))
	}
	out := make([]any, n)
	copy(out, items[:n])
	return out, nil
}

func builtinUnique(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("unique", args, kwargs, []string{"items"}, 1)
	if err != nil {
		return nil, err
	}
	items, err := argList("unique", a[0])
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		dup := false
		for _, seen := range out {
			if equal(seen, it) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return out, nil
}

func builtinGroupCount(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("group_count", args, kwargs, []string{"records", "field"}, 2)
	if err != nil {
		return nil, err
	}
	keys, err := values("group_count", a[0], a[1])
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for _, k := range keys {
		key := groupKey(k)
		n, _ := out[key].(int64)
		out[key] = n + 1
	}
	return out, nil
}

func builtinGroupSum(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("group_sum", args, kwargs, []string{"records", "key_field", "value_field"}, 3)
	if err != nil {
		return nil, err
	}
	keys, err := values("group_sum", a[0], a[1])
	if err != nil {
		return nil, err
	}
	vals, err := values("group_sum", a[0], a[2])
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for i, k := range keys {
		key := groupKey(k)
		if _, ok := out[key]; !ok {
			out[key] = int64(0)
		}
		if isEmpty(vals[i]) {
			continue
		}
		sum, err := binaryOp("+", out[key], vals[i])
		if err != nil {
			return nil, fmt.Errorf("group_sum: %w", err)
		}
		out[key] = sum
	}
	return out, nil
}

func groupKey(v any) string {
	if isEmpty(v) {
		return "None"
	}
	return keyString(v)
}

func builtinNameOf(_ *interp, args []any, kwargs map[string]any) (any, error) {
	a, err := bindArgs("name_of", args, kwargs, []string{"value"}, 1)
	if err != nil {
		return nil, err
	}
	if name, ok := many2oneName(a[0]); ok {
		return name, nil
	}
	if a[0] == false || a[0] == nil {
		return "", nil
	}
	return str(a[0]), nil
}

func dateHelper(format func(time.Time, int64) string, takesDays bool) func(*interp, []any, map[string]any) (any, error) {
	return func(in *interp, args []any, kwargs map[string]any) (any, error) {
		params, required := []string(nil), 0
		if takesDays {
			params, required = []string{"days"}, 1
		}
		a, err := bindArgs("date helper", args, kwargs, params, required)
		if err != nil {
			return nil, err
		}
		var n int64
		if takesDays {
			if n, err = argInt("date helper", a[0]); err != nil {
				return nil, err
			}
		}
		return format(in.now, n), nil
	}
}
