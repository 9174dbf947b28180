package models

// Standing is computed from the current match set on every request and is
// never stored.
type Standing struct {
	Rank         int      `json:"rank"`
	CompetitorID int      `json:"competitor_id"`
	Name         string   `json:"name"`
	Played       int      `json:"played"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	Points       int      `json:"points"`
	GamesWon     int      `json:"games_won"`
	GamesLost    int      `json:"games_lost"`
	Remarks      []string `json:"remarks,omitempty"`

	TieBreakGamesWon  int `json:"-"`
	TieBreakGamesLost int `json:"-"`
}

const (
	WinPoints  = 3
	LossPoints = 1
)

func (s *Standing) RecordWin(gamesWon, gamesLost int) {
	s.Played++
	s.Wins++
	s.Points += WinPoints
	s.GamesWon += gamesWon
	s.GamesLost += gamesLost
}

func (s *Standing) RecordLoss(gamesWon, gamesLost int) {
	s.Played++
	s.Losses++
	s.Points += LossPoints
	s.GamesWon += gamesWon
	s.GamesLost += gamesLost
}

func (s *Standing) AddRemark(remark string) {
	s.Remarks = append(s.Remarks, remark)
}

type FinalResult struct {
	RoomID      int         `json:"room_id"`
	MatchFormat MatchFormat `json:"match_format"`
	Winner      *string     `json:"winner"`
	RunnerUp    *string     `json:"runner_up"`
	JointThird  []string    `json:"joint_third"`
	Rankings    []*Standing `json:"rankings,omitempty"`
}
