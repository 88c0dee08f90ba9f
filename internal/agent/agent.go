// Package agent wraps the language model with the fantasy-sports system
// prompt, a bounded retry policy, and the tool registry.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/pythia/internal/llm"
)

const (
	// maxModelRetries bounds retries of a failed model call. Upstream data
	// failures never reach this path: the tool layer absorbs them into
	// textual results.
	maxModelRetries = 3

	// maxToolRounds caps how many times the model may invoke tools before
	// it must answer.
	maxToolRounds = 8
)

// Variable so tests can shorten the backoff.
var retryDelay = time.Second

// ErrModelUnavailable is returned once the retry budget is exhausted. The
// transport maps it to a generic in-band error message and keeps the
// connection open.
var ErrModelUnavailable = errors.New("model unavailable after retries")

// ToolSource is the slice of the tool registry the agent needs.
type ToolSource interface {
	Definitions() []llm.Tool
	Dispatch(ctx context.Context, name string, args json.RawMessage) string
}

// Agent answers one user utterance at a time. It is stateless per call:
// conversation memory lives in the session, passed in full on every turn.
type Agent struct {
	client       llm.ChatClient
	tools        ToolSource
	model        string
	systemPrompt string
}

// New creates an agent. sportsMapping is the "name = id" text interpolated
// into the system prompt.
func New(client llm.ChatClient, tools ToolSource, model, sportsMapping string) *Agent {
	return &Agent{
		client:       client,
		tools:        tools,
		model:        model,
		systemPrompt: buildSystemPrompt(sportsMapping),
	}
}

// Respond produces the reply to query given the session's full prior
// history. Content deltas of the reply are forwarded to onPartial as they
// stream in; the complete text is returned at the end. The model decides
// on its own which tools to call and how often.
func (a *Agent) Respond(ctx context.Context, history []llm.Message, query string, onPartial llm.StreamCallback) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.completeWithRetry(ctx, &llm.ChatRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    a.tools.Definitions(),
		}, onPartial)
		if err != nil {
			return "", err
		}

		msg := resp.First()
		if msg == nil {
			return "", fmt.Errorf("%w: empty completion", ErrModelUnavailable)
		}
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			log.Printf("[agent] tool call: %s(%s)", call.Function.Name, call.Function.Arguments)
			result := a.tools.Dispatch(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return "", fmt.Errorf("no final reply after %d tool rounds", maxToolRounds)
}

func (a *Agent) completeWithRetry(ctx context.Context, req *llm.ChatRequest, onPartial llm.StreamCallback) (*llm.ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxModelRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[agent] model call failed, retry %d/%d: %v", attempt, maxModelRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		resp, err := a.client.CreateChatCompletionStream(ctx, req, onPartial)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, lastErr)
}
