package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/upstream/projections"
)

const missingFilterMessage = "Error: at least one of player_name, stat_type, or sport_id is required to look up projections."

type projectionsArgs struct {
	PlayerName string `json:"player_name"`
	StatType   string `json:"stat_type"`
	SportID    int    `json:"sport_id"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

func (r *Registry) projectionsTool() Tool {
	return Tool{
		Definition: llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "get_projections",
				Description: "Get current stat-line projections. Filter by player name, stat type, or sport ID; at least one filter is required. Results are paginated.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"player_name": map[string]any{
							"type":        "string",
							"description": "Full player name, e.g. 'LeBron James'",
						},
						"stat_type": map[string]any{
							"type":        "string",
							"description": "Stat category, e.g. 'points', 'rebounds'",
						},
						"sport_id": map[string]any{
							"type":        "integer",
							"description": "Numeric sport ID, e.g. 7 for NBA",
						},
						"page": map[string]any{
							"type":        "integer",
							"description": "Page number, starting at 1",
						},
						"page_size": map[string]any{
							"type":        "integer",
							"description": "Results per page, default 50",
						},
					},
				},
			},
		},
		Handle: r.handleProjections,
	}
}

func (r *Registry) handleProjections(ctx context.Context, raw json.RawMessage) string {
	var args projectionsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Sprintf("Error reading projections arguments: %v", err)
	}

	// Reject the unfiltered query before touching the network.
	if args.PlayerName == "" && args.StatType == "" && args.SportID == 0 {
		return missingFilterMessage
	}

	query := projections.Query{
		PlayerName: args.PlayerName,
		StatType:   args.StatType,
		SportID:    args.SportID,
		Page:       args.Page,
		PageSize:   args.PageSize,
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = projections.DefaultPageSize
	}

	page, err := r.projections.FetchProjections(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error fetching projections for %s: %v", query.Describe(), err)
	}

	return formatProjections(query, page)
}

func formatProjections(query projections.Query, page *projections.Page) string {
	if len(page.Items) == 0 {
		return fmt.Sprintf("No projections found for %s.", query.Describe())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Projections for %s:\n", query.Describe())
	for _, proj := range page.Items {
		fmt.Fprintf(&b, "- %s, %s: %g (%s)\n", proj.PlayerName, proj.StatType, proj.LineScore, proj.Description)
		fmt.Fprintf(&b, "  Game starts: %s\n", proj.StartTime.Format("2006-01-02 15:04"))
		if proj.Opponent != nil {
			fmt.Fprintf(&b, "  Opponent: %s\n", *proj.Opponent)
		}
	}

	p := page.Pagination
	if p.HasNext {
		fmt.Fprintf(&b, "Showing page %d of %d (%d projections total). Ask for page %d to see more.\n",
			p.Page, p.TotalPages, p.TotalCount, p.Page+1)
	}
	return b.String()
}
