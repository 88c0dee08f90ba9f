package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/upstream/hoops"
)

type playerDetailsArgs struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *Registry) playerDetailsTool() Tool {
	return Tool{
		Definition: llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "get_player_details",
				Description: "Look up a player's profile by first and last name. Returns biographical details and the numeric player ID needed by get_player_stats.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"first_name": map[string]any{
							"type":        "string",
							"description": "Player's first name",
						},
						"last_name": map[string]any{
							"type":        "string",
							"description": "Player's last name",
						},
					},
					"required": []string{"first_name", "last_name"},
				},
			},
		},
		Handle: r.handlePlayerDetails,
	}
}

func (r *Registry) handlePlayerDetails(ctx context.Context, raw json.RawMessage) string {
	var args playerDetailsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Sprintf("Error reading player details arguments: %v", err)
	}

	name := strings.TrimSpace(args.FirstName + " " + args.LastName)
	players, err := r.stats.FindPlayers(ctx, args.FirstName, args.LastName)
	if err != nil {
		return fmt.Sprintf("Error fetching player details for %s: %v", name, err)
	}
	if len(players) == 0 {
		return fmt.Sprintf("No player found matching %s.", name)
	}

	return formatPlayerProfile(players[0])
}

func formatPlayerProfile(p hoops.PlayerProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player details for %s:\n", p.FullName())
	if p.Team.FullName != "" {
		fmt.Fprintf(&b, "  Team: %s (%s / %s)\n", p.Team.FullName, p.Team.Conference, p.Team.Division)
	}
	if p.Position != "" {
		fmt.Fprintf(&b, "  Position: %s\n", p.Position)
	}
	if p.Height != "" {
		fmt.Fprintf(&b, "  Height: %s\n", p.Height)
	}
	if p.Weight != "" {
		fmt.Fprintf(&b, "  Weight: %s lbs\n", p.Weight)
	}
	if p.JerseyNumber != "" {
		fmt.Fprintf(&b, "  Jersey: #%s\n", p.JerseyNumber)
	}
	if p.College != "" {
		fmt.Fprintf(&b, "  College: %s\n", p.College)
	}
	if p.Country != "" {
		fmt.Fprintf(&b, "  Country: %s\n", p.Country)
	}
	if p.DraftYear != 0 {
		fmt.Fprintf(&b, "  Draft: %d, round %d, pick %d\n", p.DraftYear, p.DraftRound, p.DraftNumber)
	}

	// The hand-off line is how the model chains this tool into
	// get_player_stats; there is no direct tool-to-tool call.
	fmt.Fprintf(&b, "%s's player ID is %d. Use the get_player_stats tool with player_id=%d to fetch season statistics.\n",
		p.FullName(), p.ID, p.ID)
	return b.String()
}
