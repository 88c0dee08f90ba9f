// Package tools implements the callable capabilities the conversational
// agent may invoke: projection lookups, player profile lookups, and season
// stat summaries. Every handler returns formatted text and never an error;
// failures of any kind are rendered into the returned string, because the
// agent has no recovery path for a raised tool failure.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/upstream/hoops"
	"github.com/fortuna/pythia/internal/upstream/projections"
)

// ProjectionsAPI is the slice of the projections client the tools need.
type ProjectionsAPI interface {
	FetchProjections(ctx context.Context, q projections.Query) (*projections.Page, error)
}

// StatsAPI is the slice of the stats client the tools need.
type StatsAPI interface {
	FindPlayers(ctx context.Context, firstName, lastName string) ([]hoops.PlayerProfile, error)
	FetchGameStats(ctx context.Context, playerID, season, perPage int) ([]hoops.GameStatLine, error)
}

// Handler executes one tool call. Raw arguments come straight from the
// model and may be malformed.
type Handler func(ctx context.Context, args json.RawMessage) string

// Tool pairs a capability declaration with its handler.
type Tool struct {
	Definition llm.Tool
	Handle     Handler
}

// Registry is the closed set of capabilities exposed to the model,
// dispatched by name.
type Registry struct {
	projections ProjectionsAPI
	stats       StatsAPI
	tools       []Tool
	byName      map[string]Handler
}

// NewRegistry builds the registry over the two upstream clients.
func NewRegistry(projectionsAPI ProjectionsAPI, statsAPI StatsAPI) *Registry {
	r := &Registry{
		projections: projectionsAPI,
		stats:       statsAPI,
		byName:      make(map[string]Handler),
	}
	r.register(r.projectionsTool())
	r.register(r.playerDetailsTool())
	r.register(r.playerStatsTool())
	return r
}

func (r *Registry) register(tool Tool) {
	r.tools = append(r.tools, tool)
	r.byName[tool.Definition.Function.Name] = tool.Handle
}

// Definitions returns the tool declarations to attach to model requests.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition)
	}
	return defs
}

// Dispatch runs the named tool. An unknown name is reported as text like
// any other tool failure.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) string {
	handler, ok := r.byName[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	return handler(ctx, args)
}
