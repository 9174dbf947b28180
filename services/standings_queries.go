package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

type GroupMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GridCell is one cross-table cell seen from the row competitor.
type GridCell struct {
	MatchID     int  `json:"match_id"`
	RowScore    int  `json:"row_score"`
	ColumnScore int  `json:"column_score"`
	Completed   bool `json:"completed"`
	Won         bool `json:"won"`
}

type GroupDetail struct {
	Group     *models.Group        `json:"group"`
	Members   []GroupMember        `json:"members"`
	Matches   []*models.Match      `json:"matches"`
	Standings []*models.Standing   `json:"standings"`
	Grid      map[string]*GridCell `json:"grid"`
	Finished  bool                 `json:"finished"`
}

// GridKey addresses a cross-table cell as "<row>-<column>".
func GridKey(rowID, columnID int) string {
	return fmt.Sprintf("%d-%d", rowID, columnID)
}

func buildGroupDetail(group *models.Group, matches []*models.Match, roster brackets.Roster, mode models.RankingMode) *GroupDetail {
	standings := brackets.CalculateStandings(matches, roster, mode)

	members := make([]GroupMember, 0, len(standings))
	seen := make(map[int]bool)
	for _, m := range matches {
		for _, id := range []*int{m.Competitor1ID, m.Competitor2ID} {
			if id != nil && !seen[*id] {
				seen[*id] = true
				members = append(members, GroupMember{ID: *id, Name: roster.Name(*id)})
			}
		}
	}

	grid := make(map[string]*GridCell, len(matches)*2)
	for _, m := range matches {
		if m.HasBye() {
			continue
		}
		a, b := *m.Competitor1ID, *m.Competitor2ID
		grid[GridKey(a, b)] = gridCell(m, a)
		grid[GridKey(b, a)] = gridCell(m, b)
	}

	return &GroupDetail{
		Group:     group,
		Members:   members,
		Matches:   matches,
		Standings: standings,
		Grid:      grid,
		Finished:  countPending(matches) == 0,
	}
}

func gridCell(m *models.Match, rowID int) *GridCell {
	won, lost := m.ScoreFor(rowID)
	return &GridCell{
		MatchID:     m.ID,
		RowScore:    won,
		ColumnScore: lost,
		Completed:   m.IsCompleted(),
		Won:         m.WinnerID != nil && *m.WinnerID == rowID,
	}
}

func (s *tournamentService) loadGroup(ctx context.Context, groupID int) (*models.Group, error) {
	group, err := s.repos.Groups.GetByID(ctx, nil, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group %d: %w", groupID, err)
	}
	return group, nil
}

func (s *tournamentService) GetGroupDetail(ctx context.Context, groupID int, mode *models.RankingMode) (*GroupDetail, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	room, err := getRoom(ctx, s.repos.Rooms, nil, group.RoomID)
	if err != nil {
		return nil, err
	}

	ranking := room.RankingMode
	if mode != nil {
		if !mode.Valid() {
			return nil, fmt.Errorf("%w: ranking mode %q", ErrRoomSettingInvalid, *mode)
		}
		ranking = *mode
	}

	var (
		matches []*models.Match
		roster  brackets.Roster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.repos.Matches.ListByGroup(gctx, nil, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		roster, _, err = loadRoster(gctx, s.repos, nil, room)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load group %d: %w", groupID, err)
	}

	return buildGroupDetail(group, matches, roster, ranking), nil
}

// ComputeStandings ranks a group from its current matches. It never writes.
func (s *tournamentService) ComputeStandings(ctx context.Context, groupID int, mode *models.RankingMode) ([]*models.Standing, error) {
	detail, err := s.GetGroupDetail(ctx, groupID, mode)
	if err != nil {
		return nil, err
	}
	return detail.Standings, nil
}

func (s *tournamentService) GetGroupStage(ctx context.Context, roomID int) ([]*GroupDetail, error) {
	snap, err := loadSnapshot(ctx, s.repos, nil, roomID)
	if err != nil {
		return nil, err
	}
	details := make([]*GroupDetail, 0, len(snap.groups))
	for _, group := range snap.groups {
		details = append(details, buildGroupDetail(group, brackets.MatchesOfGroup(snap.matches, group.ID), snap.roster, snap.room.RankingMode))
	}
	return details, nil
}

func (s *tournamentService) ListMatches(ctx context.Context, roomID int) ([]*models.Match, error) {
	if _, err := getRoom(ctx, s.repos.Rooms, nil, roomID); err != nil {
		return nil, err
	}
	matches, err := s.repos.Matches.ListByRoom(ctx, nil, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for room %d: %w", roomID, err)
	}
	return matches, nil
}

func (s *tournamentService) GetBracket(ctx context.Context, roomID int) (*brackets.BracketView, error) {
	snap, err := loadSnapshot(ctx, s.repos, nil, roomID)
	if err != nil {
		return nil, err
	}
	if !snap.room.MatchFormat.HasBracket() {
		return nil, ErrFormatHasNoBracket
	}

	bracket := bracketMatches(snap.matches)
	labels := make(map[int]string)
	if len(bracket) > 0 && snap.room.AdvancingPerGroup > 0 {
		for _, seed := range brackets.QualifyFinalists(snap.groups, snap.matches, snap.roster, snap.room.RankingMode, snap.room.AdvancingPerGroup) {
			labels[seed.CompetitorID] = seed.Label()
		}
	}
	return brackets.BuildBracketView(bracket, snap.roster, labels, snap.room.BracketLayout), nil
}

// GetFinalResult summarizes a finished competition. Round-robin rooms are
// ranked over every group match; bracket rooms take the final and the
// semifinal.
func (s *tournamentService) GetFinalResult(ctx context.Context, roomID int) (*models.FinalResult, error) {
	snap, err := loadSnapshot(ctx, s.repos, nil, roomID)
	if err != nil {
		return nil, err
	}
	return finalResult(snap)
}

// ComputeFinalResult summarizes matches played outside a stored room.
func ComputeFinalResult(room *models.Room, matches []*models.Match, roster brackets.Roster) (*models.FinalResult, error) {
	return finalResult(&roomSnapshot{room: room, matches: matches, roster: roster})
}

func finalResult(snap *roomSnapshot) (*models.FinalResult, error) {
	if len(snap.matches) == 0 {
		return nil, ErrNoGroupMatches
	}
	if pending := countPending(snap.matches); pending > 0 {
		return nil, fmt.Errorf("%w: %d pending", ErrMatchesPending, pending)
	}

	result := &models.FinalResult{
		RoomID:      snap.room.ID,
		MatchFormat: snap.room.MatchFormat,
		JointThird:  make([]string, 0, 2),
	}

	if !snap.room.MatchFormat.HasBracket() {
		standings := brackets.CalculateStandings(groupMatches(snap.matches), snap.roster, snap.room.RankingMode)
		result.Rankings = standings
		if len(standings) > 0 {
			result.Winner = &standings[0].Name
		}
		if len(standings) > 1 {
			result.RunnerUp = &standings[1].Name
		}
		if len(standings) > 2 {
			result.JointThird = append(result.JointThird, standings[2].Name)
		}
		return result, nil
	}

	bracket := bracketMatches(snap.matches)
	latest := brackets.LatestRound(bracket)
	if latest < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrBracketTooShort, latest)
	}
	final := brackets.RoundMatches(bracket, latest)
	if len(final) != 1 || final[0].WinnerID == nil {
		return nil, ErrNoChampion
	}

	winner := snap.roster.Name(*final[0].WinnerID)
	result.Winner = &winner
	if loser := final[0].Loser(); loser != nil {
		runnerUp := snap.roster.Name(*loser)
		result.RunnerUp = &runnerUp
	}
	for _, semi := range brackets.RoundMatches(bracket, latest-1) {
		if loser := semi.Loser(); loser != nil {
			result.JointThird = append(result.JointThird, snap.roster.Name(*loser))
		}
	}
	return result, nil
}
