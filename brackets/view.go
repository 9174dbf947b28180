package brackets

import (
	"fmt"

	"github.com/Dosada05/pingpong-league/models"
)

type BracketSlot struct {
	CompetitorID *int   `json:"competitor_id"`
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	IsBye        bool   `json:"is_bye"`
}

type BracketMatchView struct {
	MatchID  int                `json:"match_id"`
	Round    int                `json:"round"`
	Slot1    BracketSlot        `json:"slot1"`
	Slot2    BracketSlot        `json:"slot2"`
	Score1   int                `json:"score1"`
	Score2   int                `json:"score2"`
	Status   models.MatchStatus `json:"status"`
	WinnerID *int               `json:"winner_id,omitempty"`
}

type BracketRoundView struct {
	Round   int                 `json:"round"`
	Title   string              `json:"title"`
	Matches []*BracketMatchView `json:"matches,omitempty"`
	Left    []*BracketMatchView `json:"left,omitempty"`
	Right   []*BracketMatchView `json:"right,omitempty"`
}

type BracketView struct {
	Layout       models.BracketLayout `json:"layout"`
	Rounds       []*BracketRoundView  `json:"rounds"`
	ChampionID   *int                 `json:"champion_id,omitempty"`
	ChampionName string               `json:"champion_name,omitempty"`
}

// RoundTitle names a round by the number of matches in it.
func RoundTitle(matchCount int) string {
	switch matchCount {
	case 1:
		return "Final"
	case 2:
		return "Semifinal"
	case 4:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round of %d", matchCount*2)
	}
}

// BuildBracketView shapes bracket matches for display. labels maps a
// competitor to its group origin and is applied to every slot it occupies.
// The split layout divides each round into two halves, the left half taking
// the extra match of an odd round.
func BuildBracketView(matches []*models.Match, roster Roster, labels map[int]string, layout models.BracketLayout) *BracketView {
	view := &BracketView{Layout: layout, Rounds: make([]*BracketRoundView, 0)}
	latest := LatestRound(matches)

	for round := 1; round <= latest; round++ {
		roundMatches := RoundMatches(matches, round)
		rv := &BracketRoundView{Round: round, Title: RoundTitle(len(roundMatches))}

		views := make([]*BracketMatchView, 0, len(roundMatches))
		for _, m := range roundMatches {
			views = append(views, &BracketMatchView{
				MatchID:  m.ID,
				Round:    m.Round,
				Slot1:    newSlot(m.Competitor1ID, roster, labels),
				Slot2:    newSlot(m.Competitor2ID, roster, labels),
				Score1:   m.Score1,
				Score2:   m.Score2,
				Status:   m.Status,
				WinnerID: m.WinnerID,
			})
		}

		if layout == models.BracketLayoutSplit && len(views) > 1 {
			half := (len(views) + 1) / 2
			rv.Left = views[:half]
			rv.Right = views[half:]
		} else {
			rv.Matches = views
		}
		view.Rounds = append(view.Rounds, rv)

		if round == latest && len(roundMatches) == 1 && roundMatches[0].IsCompleted() && roundMatches[0].WinnerID != nil {
			view.ChampionID = models.IntPtr(*roundMatches[0].WinnerID)
			view.ChampionName = roster.Name(*roundMatches[0].WinnerID)
		}
	}
	return view
}

func newSlot(id *int, roster Roster, labels map[int]string) BracketSlot {
	if id == nil {
		return BracketSlot{Name: "BYE", IsBye: true}
	}
	return BracketSlot{
		CompetitorID: models.IntPtr(*id),
		Name:         roster.Name(*id),
		Label:        labels[*id],
	}
}
