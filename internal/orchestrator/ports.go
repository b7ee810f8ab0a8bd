package orchestrator

import (
	"context"

	"github.com/Vovarama1992/odoo-query-bridge/internal/engine"
	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
)

// Outcome is what a caller gets back for one question. Success false
// always comes with a non-empty Error, and Success true with an empty one.
type Outcome struct {
	Question     string `json:"question"`
	Code         string `json:"code"`
	TextResponse string `json:"text_response"`
	Data         any    `json:"data"`
	Success      bool   `json:"success"`
	Error        string `json:"error"`
}

// GatewayFactory opens a fresh authenticated gateway for one question.
type GatewayFactory func(ctx context.Context) (engine.Gateway, error)

// Executor runs a cleaned program against a gateway.
type Executor interface {
	Execute(ctx context.Context, program string, gw engine.Gateway) engine.Outcome
}

// Service: question in, outcome out. Never returns an error.
type Service interface {
	Handle(ctx context.Context, question string) Outcome
}

// OdooGateways authenticates a new odoo.Client per call with creds;
// missing fields are resolved from the environment.
func OdooGateways(creds odoo.Credentials, opts ...odoo.Option) GatewayFactory {
	return func(ctx context.Context) (engine.Gateway, error) {
		c, err := odoo.New(ctx, creds, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
