package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Vovarama1992/odoo-query-bridge/internal/engine"
	apperrors "github.com/Vovarama1992/odoo-query-bridge/internal/errors"
	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
)

type fakeAI struct {
	mu      sync.Mutex
	calls   int
	systems []string
	reply   string
	err     error
}

func (f *fakeAI) GetReply(_ context.Context, systemPrompt, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.systems = append(f.systems, systemPrompt)
	return f.reply, f.err
}

type fakeGateway struct {
	records []odoo.Record
	err     error
	closed  bool
}

func (g *fakeGateway) SearchRead(context.Context, string, odoo.Domain, []string, int) ([]odoo.Record, error) {
	return g.records, g.err
}

func (g *fakeGateway) Close() error {
	g.closed = true
	return nil
}

type factoryCounter struct {
	calls int
	gw    engine.Gateway
	err   error
}

func (f *factoryCounter) open(context.Context) (engine.Gateway, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.gw, nil
}

type fakeExecutor struct {
	calls   int
	program string
	outcome engine.Outcome
	panicV  any
}

func (f *fakeExecutor) Execute(_ context.Context, program string, _ engine.Gateway) engine.Outcome {
	f.calls++
	f.program = program
	if f.panicV != nil {
		panic(f.panicV)
	}
	return f.outcome
}

func checkInvariant(t *testing.T, out Outcome) {
	t.Helper()
	if out.Success && out.Error != "" {
		t.Fatalf("success with error %q", out.Error)
	}
	if !out.Success && out.Error == "" {
		t.Fatal("failure without error")
	}
}

func TestHandleRejectsBlankQuestions(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t "} {
		aiClient := &fakeAI{reply: "x = 1"}
		factory := &factoryCounter{gw: &fakeGateway{}}
		exec := &fakeExecutor{}
		svc := NewService(aiClient, factory.open, exec)

		out := svc.Handle(context.Background(), q)

		if out.Success || out.Error != "Question cannot be empty" {
			t.Fatalf("Handle(%q) = %+v", q, out)
		}
		if out.Code != "" || out.TextResponse != "" || out.Data != nil {
			t.Fatalf("expected empty fields, got %+v", out)
		}
		if aiClient.calls != 0 || factory.calls != 0 || exec.calls != 0 {
			t.Fatalf("calls ai=%d gateway=%d engine=%d, want none", aiClient.calls, factory.calls, exec.calls)
		}
	}
}

func TestHandleSuccess(t *testing.T) {
	aiClient := &fakeAI{reply: "```python\nresult_data = 3\nprint('3 customers')\n```"}
	gw := &fakeGateway{}
	factory := &factoryCounter{gw: gw}
	exec := &fakeExecutor{outcome: engine.Outcome{Text: "3 customers\n", Data: int64(3)}}
	svc := NewService(aiClient, factory.open, exec)

	out := svc.Handle(context.Background(), "How many customers?")
	checkInvariant(t, out)

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Question != "How many customers?" || out.Code != "result_data = 3\nprint('3 customers')" {
		t.Fatalf("outcome = %+v", out)
	}
	if exec.program != out.Code {
		t.Fatalf("engine ran %q, want cleaned code", exec.program)
	}
	if out.TextResponse != "3 customers\n" || out.Data != int64(3) {
		t.Fatalf("outcome = %+v", out)
	}
	if aiClient.systems[0] != SystemPrompt {
		t.Fatal("system prompt not sent")
	}
	if !gw.closed {
		t.Fatal("gateway not closed")
	}
}

func TestHandleModelFailure(t *testing.T) {
	aiClient := &fakeAI{err: apperrors.Wrap(apperrors.ModelInvocationError, "chat completion", errors.New("quota exceeded"))}
	factory := &factoryCounter{gw: &fakeGateway{}}
	exec := &fakeExecutor{}
	svc := NewService(aiClient, factory.open, exec)

	out := svc.Handle(context.Background(), "total sales?")
	checkInvariant(t, out)

	if out.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(out.Code, "Error generating code: ") || !strings.Contains(out.Code, "quota exceeded") {
		t.Fatalf("code = %q", out.Code)
	}
	if out.Error != out.Code {
		t.Fatalf("error = %q", out.Error)
	}
	if aiClient.calls != 1 || factory.calls != 0 || exec.calls != 0 {
		t.Fatalf("calls ai=%d gateway=%d engine=%d", aiClient.calls, factory.calls, exec.calls)
	}
}

func TestHandleConnectFailureKeepsCode(t *testing.T) {
	aiClient := &fakeAI{reply: "result_data = 1"}
	factory := &factoryCounter{err: apperrors.New(apperrors.AuthenticationError, "Authentication failed!")}
	exec := &fakeExecutor{}
	svc := NewService(aiClient, factory.open, exec)

	out := svc.Handle(context.Background(), "q")
	checkInvariant(t, out)

	if out.Success || !strings.HasPrefix(out.Error, "Failed to connect to Odoo: ") {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(out.Error, "Authentication failed!") {
		t.Fatalf("error = %q", out.Error)
	}
	if out.Code != "result_data = 1" {
		t.Fatalf("code = %q", out.Code)
	}
	if exec.calls != 0 {
		t.Fatal("engine should not run")
	}
}

func TestHandleExecutionErrorIsFailure(t *testing.T) {
	aiClient := &fakeAI{reply: "print('partial')\nx = missing"}
	factory := &factoryCounter{gw: &fakeGateway{}}
	exec := &fakeExecutor{outcome: engine.Outcome{Text: "partial\n", Error: "line 2: name 'missing' is not defined"}}
	svc := NewService(aiClient, factory.open, exec)

	out := svc.Handle(context.Background(), "q")
	checkInvariant(t, out)

	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Error != "line 2: name 'missing' is not defined" || out.TextResponse != "partial\n" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestHandleRecoversEnginePanic(t *testing.T) {
	aiClient := &fakeAI{reply: "x = 1"}
	gw := &fakeGateway{}
	factory := &factoryCounter{gw: gw}
	exec := &fakeExecutor{panicV: "namespace setup failed"}
	svc := NewService(aiClient, factory.open, exec)

	out := svc.Handle(context.Background(), "q")
	checkInvariant(t, out)

	if out.Error != "Error executing code: namespace setup failed" {
		t.Fatalf("error = %q", out.Error)
	}
	if out.Code != "x = 1" {
		t.Fatalf("code = %q", out.Code)
	}
	if !gw.closed {
		t.Fatal("gateway not closed after panic")
	}
}

func TestHandleWithEngine(t *testing.T) {
	aiClient := &fakeAI{reply: "```python\n" +
		"partners = odoo.search_read('res.partner', [('customer_rank', '>', 0)], fields=['name'], limit=0)\n" +
		"result_data = pluck(partners, 'name')\n" +
		"print('Customers:', len(partners))\n" +
		"```"}
	gw := &fakeGateway{records: []odoo.Record{
		{"id": int64(1), "name": "Azure Interior"},
		{"id": int64(2), "name": "Deco Addict"},
	}}
	factory := &factoryCounter{gw: gw}
	svc := NewService(aiClient, factory.open, engine.New())

	out := svc.Handle(context.Background(), "Who are our customers?")
	checkInvariant(t, out)

	if !out.Success {
		t.Fatalf("outcome = %+v", out)
	}
	if out.TextResponse != "Customers: 2\n" {
		t.Fatalf("text = %q", out.TextResponse)
	}
	names, ok := out.Data.([]any)
	if !ok || len(names) != 2 || names[0] != "Azure Interior" {
		t.Fatalf("data = %#v", out.Data)
	}
}

func TestHandleWithEngineRemoteFault(t *testing.T) {
	aiClient := &fakeAI{reply: "rows = odoo.search_read('sale.order', fields=['name'], limit=5)\nresult_data = rows"}
	gw := &fakeGateway{err: apperrors.Wrap(apperrors.RemoteQueryError, "search_read sale.order", errors.New("Access Denied"))}
	factory := &factoryCounter{gw: gw}
	svc := NewService(aiClient, factory.open, engine.New())

	out := svc.Handle(context.Background(), "orders?")
	checkInvariant(t, out)

	if out.Success || !strings.Contains(out.Error, "Access Denied") {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Data != nil {
		t.Fatalf("data = %#v", out.Data)
	}
}

func TestOdooGatewaysReturnsNilInterfaceOnError(t *testing.T) {
	open := OdooGateways(odoo.Credentials{}, odoo.WithLookup(func(string) (string, bool) { return "", false }))
	gw, err := open(context.Background())
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if gw != nil {
		t.Fatalf("gateway = %#v, want nil", gw)
	}
	if apperrors.KindOf(err) != apperrors.ConfigurationError {
		t.Fatalf("kind = %q", apperrors.KindOf(err))
	}
}
