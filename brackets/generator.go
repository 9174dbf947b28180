package brackets

import (
	"errors"

	"github.com/Dosada05/pingpong-league/models"
)

var (
	ErrGroupSizeTooSmall    = errors.New("group size must be at least 2")
	ErrInsufficientEntrants = errors.New("at least 2 competitors are required")
	ErrNoRound              = errors.New("no bracket round exists")
	ErrRoundIncomplete      = errors.New("current round has pending matches")
	ErrNoWinners            = errors.New("current round produced no winners")
)

// Pairing is a scheduled meeting of two slots before it is persisted.
// A nil slot is a bye.
type Pairing struct {
	Round         int
	OrderInRound  int
	Competitor1ID *int
	Competitor2ID *int
}

func (p *Pairing) IsBye() bool {
	return p.Competitor1ID == nil || p.Competitor2ID == nil
}

// ToMatch converts the pairing into a match record. Bye pairings come back
// already completed with the placeholder score.
func (p *Pairing) ToMatch(roomID int, groupID *int) *models.Match {
	m := &models.Match{
		RoomID:        roomID,
		GroupID:       groupID,
		Round:         p.Round,
		Competitor1ID: p.Competitor1ID,
		Competitor2ID: p.Competitor2ID,
		Status:        models.MatchStatusPending,
	}
	if p.IsBye() {
		completeBye(m)
	}
	return m
}

func completeBye(m *models.Match) {
	if m.Competitor1ID != nil {
		m.Complete(models.ByeWinnerScore, models.ByeLoserScore)
		return
	}
	m.Complete(models.ByeLoserScore, models.ByeWinnerScore)
}
