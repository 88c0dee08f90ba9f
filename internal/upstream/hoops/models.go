package hoops

// Team is the roster team reference nested in player and stat records.
type Team struct {
	ID           int    `json:"id"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
	City         string `json:"city"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}

// PlayerProfile is a player's biographical and roster record.
type PlayerProfile struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Position     string `json:"position"`
	Height       string `json:"height"`
	Weight       string `json:"weight"`
	JerseyNumber string `json:"jersey_number"`
	College      string `json:"college"`
	Country      string `json:"country"`
	DraftYear    int    `json:"draft_year"`
	DraftRound   int    `json:"draft_round"`
	DraftNumber  int    `json:"draft_number"`
	Team         Team   `json:"team"`
}

// FullName returns "First Last".
func (p PlayerProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Game is the game record nested in a stat line.
type Game struct {
	ID               int    `json:"id"`
	Date             string `json:"date"`
	Season           int    `json:"season"`
	HomeTeamID       int    `json:"home_team_id"`
	HomeTeamScore    int    `json:"home_team_score"`
	VisitorTeamID    int    `json:"visitor_team_id"`
	VisitorTeamScore int    `json:"visitor_team_score"`
}

// PlayerRef is the abbreviated player record nested in a stat line.
type PlayerRef struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TeamID    int    `json:"team_id"`
}

// GameStatLine is one player's box score for one game. Counter fields the
// upstream omits decode as zero; percentage fields likewise, which is why
// averages must gate each percentage on its attempt count instead of
// trusting the decoded value.
type GameStatLine struct {
	ID       int       `json:"id"`
	Min      string    `json:"min"`
	FGM      int       `json:"fgm"`
	FGA      int       `json:"fga"`
	FGPct    float64   `json:"fg_pct"`
	FG3M     int       `json:"fg3m"`
	FG3A     int       `json:"fg3a"`
	FG3Pct   float64   `json:"fg3_pct"`
	FTM      int       `json:"ftm"`
	FTA      int       `json:"fta"`
	FTPct    float64   `json:"ft_pct"`
	OReb     int       `json:"oreb"`
	DReb     int       `json:"dreb"`
	Reb      int       `json:"reb"`
	Ast      int       `json:"ast"`
	Stl      int       `json:"stl"`
	Blk      int       `json:"blk"`
	Turnover int       `json:"turnover"`
	PF       int       `json:"pf"`
	Pts      int       `json:"pts"`
	Game     Game      `json:"game"`
	Team     Team      `json:"team"`
	Player   PlayerRef `json:"player"`
}
