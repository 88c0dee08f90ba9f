package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/upstream/hoops"
)

const (
	// statsSeason and statsPerPage are fixed: users ask about "this
	// season", never pick one.
	statsSeason  = 2024
	statsPerPage = 82

	recentGameLimit = 5
)

type playerStatsArgs struct {
	PlayerID int `json:"player_id"`
}

func (r *Registry) playerStatsTool() Tool {
	return Tool{
		Definition: llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "get_player_stats",
				Description: "Get a player's season averages and recent game performances by numeric player ID. Obtain the ID from get_player_details first.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"player_id": map[string]any{
							"type":        "integer",
							"description": "Numeric player ID from get_player_details",
						},
					},
					"required": []string{"player_id"},
				},
			},
		},
		Handle: r.handlePlayerStats,
	}
}

func (r *Registry) handlePlayerStats(ctx context.Context, raw json.RawMessage) string {
	var args playerStatsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Sprintf("Error reading player stats arguments: %v", err)
	}

	lines, err := r.stats.FetchGameStats(ctx, args.PlayerID, statsSeason, statsPerPage)
	if err != nil {
		return fmt.Sprintf("Error fetching stats for player %d: %v", args.PlayerID, err)
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No stats found for player %d in the %d season.", args.PlayerID, statsSeason)
	}

	played := make([]hoops.GameStatLine, 0, len(lines))
	for _, line := range lines {
		if hasMinutes(line.Min) {
			played = append(played, line)
		}
	}
	if len(played) == 0 {
		return fmt.Sprintf("Player %d appeared in %d games in the %d season but has no recorded minutes.",
			args.PlayerID, len(lines), statsSeason)
	}

	return formatSeasonSummary(args.PlayerID, played)
}

// hasMinutes reports whether a stat line represents actual playing time.
// The upstream encodes DNPs as "0", "00", or an empty minutes field.
func hasMinutes(min string) bool {
	switch strings.TrimSpace(min) {
	case "", "0", "00":
		return false
	}
	return true
}

type seasonTotals struct {
	pts, reb, ast, stl, blk float64

	// Percentage sums are tracked with their own game counts: a game with
	// zero attempts is excluded from that percentage's denominator, not
	// counted as a zero.
	fgPctSum  float64
	fgGames   int
	fg3PctSum float64
	fg3Games  int
	ftPctSum  float64
	ftGames   int
}

func accumulate(played []hoops.GameStatLine) seasonTotals {
	var t seasonTotals
	for _, line := range played {
		t.pts += float64(line.Pts)
		t.reb += float64(line.Reb)
		t.ast += float64(line.Ast)
		t.stl += float64(line.Stl)
		t.blk += float64(line.Blk)

		if line.FGA > 0 {
			t.fgPctSum += line.FGPct
			t.fgGames++
		}
		if line.FG3A > 0 {
			t.fg3PctSum += line.FG3Pct
			t.fg3Games++
		}
		if line.FTA > 0 {
			t.ftPctSum += line.FTPct
			t.ftGames++
		}
	}
	return t
}

func formatSeasonSummary(playerID int, played []hoops.GameStatLine) string {
	totals := accumulate(played)
	games := float64(len(played))
	name := playerName(played[0], playerID)

	var b strings.Builder
	fmt.Fprintf(&b, "Season %d stats for %s (%d games with minutes):\n", statsSeason, name, len(played))
	fmt.Fprintf(&b, "  Points: %.1f per game\n", totals.pts/games)
	fmt.Fprintf(&b, "  Rebounds: %.1f per game\n", totals.reb/games)
	fmt.Fprintf(&b, "  Assists: %.1f per game\n", totals.ast/games)
	fmt.Fprintf(&b, "  Steals: %.1f per game\n", totals.stl/games)
	fmt.Fprintf(&b, "  Blocks: %.1f per game\n", totals.blk/games)
	if totals.fgGames > 0 {
		fmt.Fprintf(&b, "  FG%%: %.1f\n", 100*totals.fgPctSum/float64(totals.fgGames))
	}
	if totals.fg3Games > 0 {
		fmt.Fprintf(&b, "  3P%%: %.1f\n", 100*totals.fg3PctSum/float64(totals.fg3Games))
	}
	if totals.ftGames > 0 {
		fmt.Fprintf(&b, "  FT%%: %.1f\n", 100*totals.ftPctSum/float64(totals.ftGames))
	}

	recent := played
	if len(recent) > recentGameLimit {
		recent = recent[len(recent)-recentGameLimit:]
	}
	b.WriteString("Recent performances:\n")
	for _, line := range recent {
		b.WriteString("  " + formatGameLine(line) + "\n")
	}
	return b.String()
}

func playerName(line hoops.GameStatLine, playerID int) string {
	if line.Player.FirstName != "" || line.Player.LastName != "" {
		return strings.TrimSpace(line.Player.FirstName + " " + line.Player.LastName)
	}
	return fmt.Sprintf("player %d", playerID)
}

// formatGameLine renders one game as venue, opponent, final score, and the
// player's line. The stat payload only carries the opponent's team ID, so
// that is what gets printed.
func formatGameLine(line hoops.GameStatLine) string {
	teamID := line.Player.TeamID
	if teamID == 0 {
		teamID = line.Team.ID
	}

	var venue string
	var teamScore, oppScore, oppID int
	if teamID == line.Game.HomeTeamID {
		venue = "HOME"
		teamScore, oppScore = line.Game.HomeTeamScore, line.Game.VisitorTeamScore
		oppID = line.Game.VisitorTeamID
	} else {
		venue = "AWAY"
		teamScore, oppScore = line.Game.VisitorTeamScore, line.Game.HomeTeamScore
		oppID = line.Game.HomeTeamID
	}

	result := "W"
	if teamScore < oppScore {
		result = "L"
	}

	return fmt.Sprintf("%s %s vs team %d (%s %d-%d): %d pts, %d reb, %d ast (FG %d-%d, 3PT %d-%d, FT %d-%d, %s min)",
		line.Game.Date, venue, oppID, result, teamScore, oppScore,
		line.Pts, line.Reb, line.Ast,
		line.FGM, line.FGA, line.FG3M, line.FG3A, line.FTM, line.FTA, line.Min)
}
