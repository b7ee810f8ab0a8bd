package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Vovarama1992/odoo-query-bridge/internal/errors"
	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
)

type readCall struct {
	model  string
	domain odoo.Domain
	fields []string
	limit  int
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []readCall
	records map[string][]odoo.Record
	err     error
}

func (f *fakeGateway) SearchRead(_ context.Context, model string, domain odoo.Domain, fields []string, limit int) ([]odoo.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, readCall{model: model, domain: domain, fields: fields, limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	return f.records[model], nil
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)
}

func TestExecuteCapturesOutputAndResult(t *testing.T) {
	out := New().Execute(context.Background(), "result_data = 42\nprint(\"done\")", &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	if out.Text != "done\n" {
		t.Fatalf("Text = %q", out.Text)
	}
	if out.Data != int64(42) {
		t.Fatalf("Data = %#v", out.Data)
	}
}

func TestExecuteFaultKeepsEarlierOutput(t *testing.T) {
	out := New().Execute(context.Background(), "print('before')\nresult_data = 1\nx = undefined_thing + 1\nprint('after')", &fakeGateway{})
	if out.Error == "" {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.Error, "name 'undefined_thing' is not defined") || !strings.Contains(out.Error, "line 3") {
		t.Fatalf("Error = %q", out.Error)
	}
	if out.Text != "before\n" {
		t.Fatalf("Text = %q", out.Text)
	}
	if out.Data != nil {
		t.Fatalf("Data = %#v", out.Data)
	}
}

func TestExecuteWithoutResultVariable(t *testing.T) {
	out := New().Execute(context.Background(), "x = 1", &fakeGateway{})
	if out.Error != "" || out.Text != "" || out.Data != nil {
		t.Fatalf("out = %#v", out)
	}
}

func TestExecuteSyntaxErrorRunsNothing(t *testing.T) {
	gw := &fakeGateway{}
	out := New().Execute(context.Background(), "rows = odoo.search_read('res.partner')\nprint('ok'\n", gw)
	if out.Error == "" {
		t.Fatal("expected syntax error")
	}
	if len(gw.calls) != 0 {
		t.Fatalf("gateway called %d times", len(gw.calls))
	}
	if out.Text != "" {
		t.Fatalf("Text = %q", out.Text)
	}
}

func TestExecuteRejectsPythonCode(t *testing.T) {
	out := New().Execute(context.Background(), "import os\nos.system('rm -rf /')", &fakeGateway{})
	if out.Error == "" {
		t.Fatal("expected error")
	}
}

func TestExecuteDoesNotTouchStdout(t *testing.T) {
	before := os.Stdout
	New().Execute(context.Background(), "print('captured')", &fakeGateway{})
	New().Execute(context.Background(), "print('captured')\nboom()", &fakeGateway{})
	if os.Stdout != before {
		t.Fatal("os.Stdout was replaced")
	}
}

func TestExecuteSearchReadDefaults(t *testing.T) {
	gw := &fakeGateway{records: map[string][]odoo.Record{
		"res.partner": {{"id": int64(1), "name": "Azure Interior"}, {"id": int64(2), "name": "Deco Addict"}},
	}}
	out := New().Execute(context.Background(), `
partners = odoo.search_read('res.partner')
print("Partners:", len(partners))
result_data = pluck(partners, 'name')
`, gw)
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("calls = %d", len(gw.calls))
	}
	call := gw.calls[0]
	if call.model != "res.partner" || call.domain != nil || call.fields != nil || call.limit != 0 {
		t.Fatalf("call = %#v", call)
	}
	if out.Text != "Partners: 2\n" {
		t.Fatalf("Text = %q", out.Text)
	}
	if !reflect.DeepEqual(out.Data, []any{"Azure Interior", "Deco Addict"}) {
		t.Fatalf("Data = %#v", out.Data)
	}
}

func TestExecuteSearchReadArguments(t *testing.T) {
	gw := &fakeGateway{records: map[string][]odoo.Record{}}
	out := New().Execute(context.Background(), `
orders = odoo.search_read('sale.order', ['|', ('state', '=', 'sale'), ('state', '=', 'done')], fields=['name', 'amount_total'], limit=10)
`, gw)
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	call := gw.calls[0]
	wantDomain := odoo.Domain{"|", []any{"state", "=", "sale"}, []any{"state", "=", "done"}}
	if !reflect.DeepEqual(call.domain, wantDomain) {
		t.Fatalf("domain = %#v", call.domain)
	}
	if !reflect.DeepEqual(call.fields, []string{"name", "amount_total"}) {
		t.Fatalf("fields = %#v", call.fields)
	}
	if call.limit != 10 {
		t.Fatalf("limit = %d", call.limit)
	}
}

func TestExecuteGatewayFaultBecomesOutcomeError(t *testing.T) {
	gw := &fakeGateway{err: apperrors.Wrap(apperrors.RemoteQueryError, "search_read sale.ordr", fmt.Errorf("Object sale.ordr doesn't exist"))}
	out := New().Execute(context.Background(), "print('querying')\nrows = odoo.search_read('sale.ordr')\nresult_data = rows", gw)
	if !strings.Contains(out.Error, "sale.ordr doesn't exist") {
		t.Fatalf("Error = %q", out.Error)
	}
	if out.Text != "querying\n" {
		t.Fatalf("Text = %q", out.Text)
	}
	if out.Data != nil {
		t.Fatalf("Data = %#v", out.Data)
	}
}

func TestExecuteGatewayExposesOnlySearchRead(t *testing.T) {
	out := New().Execute(context.Background(), "odoo.unlink('res.partner', [1])", &fakeGateway{})
	if !strings.Contains(out.Error, "only exposes search_read") {
		t.Fatalf("Error = %q", out.Error)
	}
}

func TestExecuteCannotShadowBuiltins(t *testing.T) {
	out := New().Execute(context.Background(), "odoo = 1", &fakeGateway{})
	if out.Error == "" {
		t.Fatal("expected error")
	}
}

func TestExecuteTabularHelpers(t *testing.T) {
	gw := &fakeGateway{records: map[string][]odoo.Record{
		"sale.order": {
			{"name": "S001", "amount_total": 1200.5, "partner_id": []any{int64(7), "Azure Interior"}, "state": "sale"},
			{"name": "S002", "amount_total": 300.0, "partner_id": []any{int64(9), "Deco Addict"}, "state": "sale"},
			{"name": "S003", "amount_total": 99.5, "partner_id": []any{int64(7), "Azure Interior"}, "state": "draft"},
			{"name": "S004", "amount_total": false, "partner_id": false, "state": "cancel"},
		},
	}}
	out := New().Execute(context.Background(), `
orders = odoo.search_read('sale.order', fields=['name', 'amount_total', 'partner_id', 'state'])
confirmed = where(orders, 'state', '=', 'sale')
print("Confirmed:", len(confirmed), "worth", round(sum(confirmed, 'amount_total'), 2))
by_customer = group_count(orders, 'partner_id')
totals = group_sum(orders, 'partner_id', 'amount_total')
top = sort_by(orders, 'amount_total', desc=True)
print("Top order:", top[0]['name'], "for", name_of(top[0]['partner_id']))
print("Azure orders:", by_customer['Azure Interior'])
result_data = {"by_customer": by_customer, "totals": totals, "max": max(orders, 'amount_total'), "avg": avg(confirmed, 'amount_total')}
`, gw)
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	wantText := "Confirmed: 2 worth 1500.5\nTop order: S001 for Azure Interior\nAzure orders: 2\n"
	if out.Text != wantText {
		t.Fatalf("Text = %q", out.Text)
	}
	data := out.Data.(map[string]any)
	if !reflect.DeepEqual(data["by_customer"], map[string]any{"Azure Interior": int64(2), "Deco Addict": int64(1), "None": int64(1)}) {
		t.Fatalf("by_customer = %#v", data["by_customer"])
	}
	totals := data["totals"].(map[string]any)
	if totals["Azure Interior"] != 1300.0 || totals["None"] != int64(0) {
		t.Fatalf("totals = %#v", totals)
	}
	if data["max"] != 1200.5 {
		t.Fatalf("max = %#v", data["max"])
	}
	if data["avg"] != 750.25 {
		t.Fatalf("avg = %#v", data["avg"])
	}
}

func TestExecuteDateHelpers(t *testing.T) {
	out := New(WithClock(fixedClock)).Execute(context.Background(), `
print(today(), now())
print(days_ago(30), days_ahead(1))
print(start_of_month(), start_of_year())
`, &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	want := "2024-03-15 2024-03-15 09:30:00\n2024-02-14 2024-03-16\n2024-03-01 2024-01-01\n"
	if out.Text != want {
		t.Fatalf("Text = %q", out.Text)
	}
}

func TestExecutePrintRendering(t *testing.T) {
	out := New().Execute(context.Background(), `
print(1, 2.0, 2.5, True, None, "s", ['a', 1], {"b": 2, "a": 1})
print("a", "b", sep="-")
print(7 / 2, 7 % 3, -7 % 3, 2 * 3 + 1)
print(", ".join(["x", "y"]), "Total: " + str(10))
`, &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	want := "1 2.0 2.5 True None s ['a', 1] {'a': 1, 'b': 2}\na-b\n3.5 1 2 7\nx, y Total: 10\n"
	if out.Text != want {
		t.Fatalf("Text = %q", out.Text)
	}
}

func TestExecuteRuntimeErrors(t *testing.T) {
	cases := map[string]string{
		"division":      "x = 1 / 0",
		"type mismatch": "x = 'a' + 1",
		"bad index":     "x = [1][5]",
		"missing key":   "x = {'a': 1}['b']",
		"not callable":  "x = 1\nx()",
		"bad kwarg":     "x = len([1], foo=2)",
		"missing arg":   "x = pluck([])",
		"bad compare":   "x = 'a' < 1",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			out := New().Execute(context.Background(), src, &fakeGateway{})
			if out.Error == "" {
				t.Fatalf("expected error for %q", src)
			}
			if !strings.HasPrefix(out.Error, "line ") {
				t.Fatalf("error lacks line: %q", out.Error)
			}
		})
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gw := &fakeGateway{}
	out := New().Execute(ctx, "rows = odoo.search_read('res.partner')", gw)
	if !strings.Contains(out.Error, "cancelled") {
		t.Fatalf("Error = %q", out.Error)
	}
	if len(gw.calls) != 0 {
		t.Fatal("gateway should not be called")
	}
}

func TestExecuteConcurrentRunsHaveSeparateOutput(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := e.Execute(context.Background(), fmt.Sprintf("print(%d)\nresult_data = %d", i, i), &fakeGateway{})
			if out.Text != fmt.Sprintf("%d\n", i) || out.Data != int64(i) {
				errs <- fmt.Sprintf("run %d: %#v", i, out)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestExecuteResultIsNormalized(t *testing.T) {
	out := New().Execute(context.Background(), "result_data = [len, odoo]", &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	want := []any{"<built-in function len>", "<odoo gateway>"}
	if !reflect.DeepEqual(out.Data, want) {
		t.Fatalf("Data = %#v", out.Data)
	}
}

func TestExecuteSortByTreatsOnlyNoneAndFalseAsEmpty(t *testing.T) {
	out := New().Execute(context.Background(), `
rows = [{'v': 5}, {'v': 0}, {'v': False}, {'v': 3}, {'v': -2}, {'v': None}]
names = [{'n': ''}, {'n': 'b'}, {'n': False}, {'n': 'a'}]
result_data = {
    "asc": pluck(sort_by(rows, 'v'), 'v'),
    "desc": pluck(sort_by(rows, 'v', desc=True), 'v'),
    "names": pluck(sort_by(names, 'n'), 'n'),
    "lowest": min(rows, 'v'),
    "non_negative_min": min(where(rows, 'v', '>=', 0), 'v'),
}
`, &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	data := out.Data.(map[string]any)

	wantAsc := []any{int64(-2), int64(0), int64(3), int64(5), false, nil}
	if !reflect.DeepEqual(data["asc"], wantAsc) {
		t.Fatalf("asc = %#v", data["asc"])
	}
	wantDesc := []any{int64(5), int64(3), int64(0), int64(-2), false, nil}
	if !reflect.DeepEqual(data["desc"], wantDesc) {
		t.Fatalf("desc = %#v", data["desc"])
	}
	if !reflect.DeepEqual(data["names"], []any{"", "a", "b", false}) {
		t.Fatalf("names = %#v", data["names"])
	}
	if data["lowest"] != int64(-2) || data["non_negative_min"] != int64(0) {
		t.Fatalf("lowest = %#v non_negative_min = %#v", data["lowest"], data["non_negative_min"])
	}
}

func TestExecuteNonFiniteFloatsLeaveAsNone(t *testing.T) {
	out := New().Execute(context.Background(), `
big = 1e308 * 10
print(float('nan'), big)
result_data = {"nan": float('nan'), "inf": float('inf'), "big": big, "neg": -big, "ok": 1.5, "nested": [float('nan')]}
`, &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	if out.Text != "nan inf\n" {
		t.Fatalf("Text = %q", out.Text)
	}
	want := map[string]any{"nan": nil, "inf": nil, "big": nil, "neg": nil, "ok": 1.5, "nested": []any{nil}}
	if !reflect.DeepEqual(out.Data, want) {
		t.Fatalf("Data = %#v", out.Data)
	}
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("json.Marshal(outcome) error = %v", err)
	}
}

func TestExecuteIntegerOverflowIsAnError(t *testing.T) {
	cases := map[string]string{
		"add":         "x = 9223372036854775807 + 1",
		"sub":         "x = -9223372036854775807 - 2",
		"mul":         "x = 9223372036854775807 * 2",
		"negate":      "x = -(-9223372036854775807 - 1)",
		"int of huge": "x = int(1e300)",
		"round huge":  "x = round(1e300)",
		"int of inf":  "x = int(float('inf'))",
		"sum":         "x = sum([9223372036854775807, 1])",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			out := New().Execute(context.Background(), src, &fakeGateway{})
			if !strings.Contains(out.Error, "integer") {
				t.Fatalf("Error = %q", out.Error)
			}
		})
	}

	out := New().Execute(context.Background(), "result_data = [9223372036854775806 + 1, -3 * 4, int(-2.7), round(2.5), sum([1, 2])]", &fakeGateway{})
	if out.Error != "" {
		t.Fatalf("Error = %q", out.Error)
	}
	want := []any{int64(9223372036854775807), int64(-12), int64(-2), int64(2), int64(3)}
	if !reflect.DeepEqual(out.Data, want) {
		t.Fatalf("Data = %#v", out.Data)
	}
}
