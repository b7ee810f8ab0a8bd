// Package orchestrator turns a question into a QueryOutcome: one model
// call for a query script, cleanup, a fresh gateway, one engine run.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Vovarama1992/odoo-query-bridge/internal/ai"
	"github.com/Vovarama1992/odoo-query-bridge/internal/engine"
	apperrors "github.com/Vovarama1992/odoo-query-bridge/internal/errors"
	"github.com/Vovarama1992/odoo-query-bridge/internal/observability"
)

const errEmptyQuestion = "Question cannot be empty"

type service struct {
	ai       ai.AI
	gateways GatewayFactory
	executor Executor
}

func NewService(aiClient ai.AI, gateways GatewayFactory, executor Executor) Service {
	return &service{
		ai:       aiClient,
		gateways: gateways,
		executor: executor,
	}
}

func (s *service) Handle(ctx context.Context, question string) Outcome {
	if strings.TrimSpace(question) == "" {
		log.Printf("[orch] rejected: %v", apperrors.New(apperrors.EmptyInputError, errEmptyQuestion))
		observability.ObserveQuestion(observability.StageEmpty)
		return Outcome{Question: question, Error: errEmptyQuestion}
	}

	log.Println("========== NEW QUESTION ==========")
	log.Printf("[orch] question=%q", question)

	// --------------------------------------------------
	// STEP 1: GENERATE
	// --------------------------------------------------

	code, err := s.generate(ctx, question)
	if err != nil {
		msg := "Error generating code: " + err.Error()
		observability.ObserveQuestion(observability.StageModelFailed)
		return Outcome{Question: question, Code: msg, Error: msg}
	}

	// --------------------------------------------------
	// STEP 2: CONNECT
	// --------------------------------------------------

	gw, err := s.gateways(ctx)
	if err != nil {
		log.Printf("[orch] gateway error: %v", err)
		observability.ObserveQuestion(observability.StageConnectFailed)
		return Outcome{Question: question, Code: code, Error: "Failed to connect to Odoo: " + err.Error()}
	}
	if c, ok := gw.(io.Closer); ok {
		defer c.Close()
	}

	// --------------------------------------------------
	// STEP 3: EXECUTE
	// --------------------------------------------------

	res, err := s.execute(ctx, code, gw)
	if err != nil {
		log.Printf("[orch] engine fault: %v", err)
		observability.ObserveQuestion(observability.StageExecutionFailed)
		return Outcome{Question: question, Code: code, Error: "Error executing code: " + err.Error()}
	}

	out := Outcome{
		Question:     question,
		Code:         code,
		TextResponse: res.Text,
		Data:         res.Data,
		Success:      res.Error == "",
		Error:        res.Error,
	}

	if out.Success {
		observability.ObserveQuestion(observability.StageOK)
	} else {
		log.Printf("[orch] %v", apperrors.New(apperrors.ScriptError, short(res.Error)))
		observability.ObserveQuestion(observability.StageExecutionFailed)
	}
	return out
}

func (s *service) generate(ctx context.Context, question string) (string, error) {
	start := time.Now()
	raw, err := s.ai.GetReply(ctx, SystemPrompt, question)
	observability.ObserveModelCall(time.Since(start))
	if err != nil {
		log.Printf("[orch] model error: %v", err)
		return "", err
	}

	code := CleanGeneratedCode(raw)
	log.Printf("[orch][CODE] %s", short(code))
	return code, nil
}

// execute guards against faults in the engine itself; script faults are
// already inside the returned outcome.
func (s *service) execute(ctx context.Context, code string, gw engine.Gateway) (res engine.Outcome, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
		observability.ObserveExecution(time.Since(start), err != nil || res.Error != "")
	}()
	return s.executor.Execute(ctx, code, gw), nil
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
