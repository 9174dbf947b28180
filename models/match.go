package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusCompleted MatchStatus = "completed"
)

// ByeScore is the placeholder score of a match won by walkover.
const (
	ByeWinnerScore = 1
	ByeLoserScore  = 0
)

// Match references competitors by ID. A nil competitor slot is a bye and only
// appears in bracket matches. GroupID is nil for bracket matches.
type Match struct {
	ID            int         `json:"id" db:"id"`
	RoomID        int         `json:"room_id" db:"room_id"`
	GroupID       *int        `json:"group_id,omitempty" db:"group_id"`
	Round         int         `json:"round" db:"round"`
	Competitor1ID *int        `json:"competitor1_id" db:"competitor1_id"`
	Competitor2ID *int        `json:"competitor2_id" db:"competitor2_id"`
	Score1        int         `json:"score1" db:"score1"`
	Score2        int         `json:"score2" db:"score2"`
	Status        MatchStatus `json:"status" db:"status"`
	WinnerID      *int        `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

func (m *Match) IsBracket() bool {
	return m.GroupID == nil
}

func (m *Match) HasBye() bool {
	return m.Competitor1ID == nil || m.Competitor2ID == nil
}

// Involves reports whether competitorID occupies either slot.
func (m *Match) Involves(competitorID int) bool {
	return (m.Competitor1ID != nil && *m.Competitor1ID == competitorID) ||
		(m.Competitor2ID != nil && *m.Competitor2ID == competitorID)
}

// Opponent returns the other slot relative to competitorID, nil for a bye.
func (m *Match) Opponent(competitorID int) *int {
	if m.Competitor1ID != nil && *m.Competitor1ID == competitorID {
		return m.Competitor2ID
	}
	return m.Competitor1ID
}

// ScoreFor returns the games won and lost by competitorID in this match.
func (m *Match) ScoreFor(competitorID int) (won, lost int) {
	if m.Competitor1ID != nil && *m.Competitor1ID == competitorID {
		return m.Score1, m.Score2
	}
	return m.Score2, m.Score1
}

// Loser returns the competitor that did not win, nil for a bye or a pending match.
func (m *Match) Loser() *int {
	if m.WinnerID == nil {
		return nil
	}
	return m.Opponent(*m.WinnerID)
}

// Complete sets scores and the winner. Callers validate that scores differ.
func (m *Match) Complete(score1, score2 int) {
	m.Score1 = score1
	m.Score2 = score2
	if score1 > score2 {
		m.WinnerID = m.Competitor1ID
	} else {
		m.WinnerID = m.Competitor2ID
	}
	m.Status = MatchStatusCompleted
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int {
	return &v
}
