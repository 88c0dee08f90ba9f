package agent

import (
	"fmt"
	"strings"

	"github.com/fortuna/pythia/internal/upstream/projections"
)

// fallbackSportsMapping covers the sports the prompt must know about when
// the catalog endpoint is unreachable at startup.
const fallbackSportsMapping = "NBA = 7, NFL = 2, Soccer = 82"

const systemPromptFormat = `You are Pythia, an intelligent fantasy sports assistant. You can talk about sports but nothing else; politely refuse any other topic.
Always greet the customer and provide a helpful response in plain text only, with no markdown formatting.
Help users analyze player projections and make informed decisions for their fantasy teams.
When users ask about projections, use the get_projections tool. Sport IDs: %s.
When users ask about a player's statistics, first call get_player_details with the player's first and last name, read the numeric player ID from the result, then call get_player_stats with that player_id.`

func buildSystemPrompt(sportsMapping string) string {
	if sportsMapping == "" {
		sportsMapping = fallbackSportsMapping
	}
	return fmt.Sprintf(systemPromptFormat, sportsMapping)
}

// SportsMapping renders the upstream sports catalog as "name = id" text
// for the system prompt. An empty catalog yields the built-in fallback.
func SportsMapping(sports []projections.Sport) string {
	if len(sports) == 0 {
		return fallbackSportsMapping
	}
	parts := make([]string, 0, len(sports))
	for _, sport := range sports {
		parts = append(parts, fmt.Sprintf("%s = %d", sport.Name, sport.ID))
	}
	return strings.Join(parts, ", ")
}
