package llm

import "fmt"

// Wire types for SSE chunks. Tool call deltas arrive fragmented: the first
// fragment for an index carries id/name, later fragments append argument
// text, so accumulation is keyed by the tool call index.
type streamChunk struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type streamDelta struct {
	Role      string           `json:"role,omitempty"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []streamToolCall `json:"tool_calls,omitempty"`
}

type streamToolCall struct {
	Index    int              `json:"index"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

type accumulator struct {
	id           string
	model        string
	role         string
	content      string
	finishReason string
	toolCalls    []ToolCall
}

func newAccumulator() *accumulator {
	return &accumulator{role: RoleAssistant}
}

// add folds one chunk into the accumulated message and returns the content
// delta it carried, if any. Only the first choice is tracked.
func (a *accumulator) add(chunk *streamChunk) (string, error) {
	if chunk.ID != "" {
		a.id = chunk.ID
	}
	if chunk.Model != "" {
		a.model = chunk.Model
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}

	choice := chunk.Choices[0]
	if choice.FinishReason != "" {
		a.finishReason = choice.FinishReason
	}
	if choice.Delta.Role != "" {
		a.role = choice.Delta.Role
	}

	for _, tc := range choice.Delta.ToolCalls {
		if tc.Index < 0 || tc.Index > len(a.toolCalls) {
			return "", fmt.Errorf("tool call index %d out of order", tc.Index)
		}
		if tc.Index == len(a.toolCalls) {
			a.toolCalls = append(a.toolCalls, ToolCall{Type: "function"})
		}
		call := &a.toolCalls[tc.Index]
		if tc.ID != "" {
			call.ID = tc.ID
		}
		if tc.Type != "" {
			call.Type = tc.Type
		}
		if tc.Function.Name != "" {
			call.Function.Name = tc.Function.Name
		}
		call.Function.Arguments += tc.Function.Arguments
	}

	a.content += choice.Delta.Content
	return choice.Delta.Content, nil
}

func (a *accumulator) response() *ChatResponse {
	return &ChatResponse{
		ID:    a.id,
		Model: a.model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &Message{
					Role:      a.role,
					Content:   a.content,
					ToolCalls: a.toolCalls,
				},
				FinishReason: a.finishReason,
			},
		},
	}
}
