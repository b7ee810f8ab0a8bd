package ai

import "context"

// AI: the language model. Knows nothing about Odoo or the engine.
type AI interface {
	GetReply(
		ctx context.Context,
		systemPrompt string,
		userText string,
	) (string, error)
}

// Message: one turn of a single-shot conversation.
type Message struct {
	Role string // "user" | "assistant" | "system"
	Text string
}
