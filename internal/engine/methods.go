package engine

import (
	"fmt"
	"strings"
)

func attribute(recv any, name string) (any, error) {
	switch r := recv.(type) {
	case *gatewayObject:
		if name == "search_read" {
			return &searchReadMethod{gw: r.gw}, nil
		}
		return nil, fmt.Errorf("the odoo gateway only exposes search_read, not '%s'", name)
	case map[string]any:
		if fn, ok := dictMethods[name]; ok {
			return &method{name: name, recv: r, fn: fn}, nil
		}
	case string:
		if fn, ok := strMethods[name]; ok {
			return &method{name: name, recv: r, fn: fn}, nil
		}
	}
	return nil, fmt.Errorf("'%s' object has no attribute '%s'", typeName(recv), name)
}

type methodFunc = func(recv any, args []any, kwargs map[string]any) (any, error)

var dictMethods = map[string]methodFunc{
	"get": func(recv any, args []any, kwargs map[string]any) (any, error) {
		a, err := bindArgs("get", args, kwargs, []string{"key", "default"}, 1)
		if err != nil {
			return nil, err
		}
		if v, ok := recv.(map[string]any)[keyString(a[0])]; ok {
			return v, nil
		}
		return orNil(a[1]), nil
	},
	"keys": func(recv any, args []any, kwargs map[string]any) (any, error) {
		if _, err := bindArgs("keys", args, kwargs, nil, 0); err != nil {
			return nil, err
		}
		m := recv.(map[string]any)
		out := make([]any, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, k)
		}
		return out, nil
	},
	"values": func(recv any, args []any, kwargs map[string]any) (any, error) {
		if _, err := bindArgs("values", args, kwargs, nil, 0); err != nil {
			return nil, err
		}
		m := recv.(map[string]any)
		out := make([]any, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, m[k])
		}
		return out, nil
	},
	"items": func(recv any, args []any, kwargs map[string]any) (any, error) {
		if _, err := bindArgs("items", args, kwargs, nil, 0); err != nil {
			return nil, err
		}
		m := recv.(map[string]any)
		out := make([]any, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, []any{k, m[k]})
		}
		return out, nil
	},
}

func strMethod(name string, fn func(s string, a []any) (any, error), params []string, required int) methodFunc {
	return func(recv any, args []any, kwargs map[string]any) (any, error) {
		a, err := bindArgs(name, args, kwargs, params, required)
		if err != nil {
			return nil, err
		}
		return fn(recv.(string), a)
	}
}

var strMethods = map[string]methodFunc{
	"upper": strMethod("upper", func(s string, _ []any) (any, error) { return strings.ToUpper(s), nil }, nil, 0),
	"lower": strMethod("lower", func(s string, _ []any) (any, error) { return strings.ToLower(s), nil }, nil, 0),
	"strip": strMethod("strip", func(s string, _ []any) (any, error) { return strings.TrimSpace(s), nil }, nil, 0),
	"startswith": strMethod("startswith", func(s string, a []any) (any, error) {
		p, err := argString("startswith", a[0])
		return strings.HasPrefix(s, p), err
	}, []string{"prefix"}, 1),
	"endswith": strMethod("endswith", func(s string, a []any) (any, error) {
		p, err := argString("endswith", a[0])
		return strings.HasSuffix(s, p), err
	}, []string{"suffix"}, 1),
	"replace": strMethod("replace", func(s string, a []any) (any, error) {
		old, err := argString("replace", a[0])
		if err != nil {
			return nil, err
		}
		repl, err := argString("replace", a[1])
		if err != nil {
			return nil, err
		}
		return strings.ReplaceAll(s, old, repl), nil
	}, []string{"old", "new"}, 2),
	"split": strMethod("split", func(s string, a []any) (any, error) {
		var parts []string
		if isUnset(a[0]) || a[0] == nil {
			parts = strings.Fields(s)
		} else {
			sep, err := argString("split", a[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, fmt.Errorf("split: empty separator")
			}
			parts = strings.Split(s, sep)
		}
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	}, []string{"sep"}, 0),
	"join": strMethod("join", func(s string, a []any) (any, error) {
		items, err := argList("join", a[0])
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = str(it)
		}
		return strings.Join(parts, s), nil
	}, []string{"iterable"}, 1),
}
