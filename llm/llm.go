// Package llm is the boundary to the completion model used by the admin
// assistant.
package llm

import (
	"context"
	"strings"
)

// DefaultSystemPrompt is used when no prompt is configured.
const DefaultSystemPrompt = "You are Amani, a helpful assistant supporting the district conference. " +
	"Answer questions accurately, concisely, and with a professional tone."

// EmptyReply is returned when the model answers with no text.
const EmptyReply = "I'm sorry, I don't have a response at the moment."

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior turn passed to the model.
type Message struct {
	Role    string
	Content string
}

// Completer produces assistant replies and conversation titles.
type Completer interface {
	// Complete answers the last user turn in history. contextBlock is the
	// assembled data context and may be empty.
	Complete(ctx context.Context, systemPrompt, contextBlock string, history []Message) (string, error)
	// Title suggests a short title for a conversation from its first message.
	Title(ctx context.Context, firstUserMessage string) (string, error)
}

// SystemInstruction joins the system prompt with the context block.
func SystemInstruction(systemPrompt, contextBlock string) string {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	contextBlock = strings.TrimSpace(contextBlock)
	if contextBlock == "" {
		return systemPrompt
	}
	return systemPrompt +
		"\n\nCONVERSATION CONTEXT (use when relevant):\n" +
		contextBlock +
		"\nIf the context is unrelated, answer using your general reasoning.\n"
}
