package engine

import (
	"fmt"

	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
)

// gatewayObject is the script's view of the gateway: one read method.
type gatewayObject struct {
	gw Gateway
}

type searchReadMethod struct {
	gw Gateway
}

// call implements odoo.search_read(model, domain=[], fields=[], limit=0).
func (m *searchReadMethod) call(in *interp, args []any, kwargs map[string]any) (any, error) {
	if m.gw == nil {
		return nil, fmt.Errorf("odoo gateway is not connected")
	}
	a, err := bindArgs("search_read", args, kwargs, []string{"model", "domain", "fields", "limit"}, 1)
	if err != nil {
		return nil, err
	}

	model, err := argString("search_read", a[0])
	if err != nil {
		return nil, err
	}

	var domain odoo.Domain
	if !isUnset(a[1]) && a[1] != nil {
		items, err := argList("search_read domain", a[1])
		if err != nil {
			return nil, err
		}
		domain = odoo.Domain(items)
	}

	var fields []string
	if !isUnset(a[2]) && a[2] != nil {
		items, err := argList("search_read fields", a[2])
		if err != nil {
			return nil, err
		}
		fields = make([]string, 0, len(items))
		for _, it := range items {
			f, err := argString("search_read fields", it)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}

	limit := 0
	if !isUnset(a[3]) && a[3] != nil {
		n, ok := toInt(a[3])
		if !ok {
			return nil, fmt.Errorf("search_read limit must be an integer, not %s", typeName(a[3]))
		}
		limit = int(n)
	}

	records, err := m.gw.SearchRead(in.ctx, model, domain, fields, limit)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = map[string]any(r)
	}
	return out, nil
}
