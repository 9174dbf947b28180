package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/metrics"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/storage"
)

const (
	finalResultObject = "final-result.json"
	standingsObject   = "standings.xlsx"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ArchiveService exports the results of completed rooms to object storage.
type ArchiveService interface {
	// ArchivePending archives up to limit completed rooms that have no
	// archive yet and returns how many succeeded. A room that fails is
	// stamped so the next batch tries other rooms first.
	ArchivePending(ctx context.Context, limit int) (int, error)
	ArchiveRoom(ctx context.Context, roomID int) (string, error)
}

type archiveService struct {
	repos    Repositories
	uploader storage.FileUploader
	recorder metrics.Recorder
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

func NewArchiveService(repos Repositories, uploader storage.FileUploader, recorder metrics.Recorder, logger zerolog.Logger) ArchiveService {
	if recorder == nil {
		recorder = metrics.NoOp{}
	}
	return &archiveService{
		repos:    repos,
		uploader: uploader,
		recorder: recorder,
		logger:   logger.With().Str("service", "archive").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *archiveService) ArchivePending(ctx context.Context, limit int) (int, error) {
	rooms, err := s.repos.Rooms.ListUnarchivedCompleted(ctx, nil, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list rooms to archive: %w", err)
	}

	archived := 0
	var errs []error
	for _, room := range rooms {
		if _, err := s.ArchiveRoom(ctx, room.ID); err != nil {
			s.logger.Error().Err(err).Int("room_id", room.ID).Msg("failed to archive room")
			errs = append(errs, fmt.Errorf("room %d: %w", room.ID, err))
			// rooms that failed most recently are listed last
			if markErr := s.repos.Rooms.MarkArchiveFailed(ctx, nil, room.ID, s.now().UTC()); markErr != nil {
				errs = append(errs, fmt.Errorf("room %d: %w", room.ID, markErr))
			}
			continue
		}
		archived++
	}
	return archived, errors.Join(errs...)
}

// ArchiveRoom uploads the final result and a standings workbook under a new
// prefix and records that prefix on the room.
func (s *archiveService) ArchiveRoom(ctx context.Context, roomID int) (string, error) {
	snap, err := loadSnapshot(ctx, s.repos, nil, roomID)
	if err != nil {
		return "", err
	}
	if snap.room.Status != models.RoomStatusCompleted {
		return "", fmt.Errorf("%w: room %d is %s", ErrInvalidState, roomID, snap.room.Status)
	}

	result, err := archiveResult(snap)
	if err != nil {
		return "", err
	}

	prefix := ArchivePrefix(snap.room, s.newID())
	if err := s.upload(ctx, prefix, snap, result); err != nil {
		s.recorder.ArchiveUploaded("failure")
		return "", err
	}
	s.recorder.ArchiveUploaded("success")

	if err := s.repos.Rooms.MarkArchived(ctx, nil, roomID, prefix, s.now().UTC()); err != nil {
		return "", fmt.Errorf("failed to mark room %d archived: %w", roomID, err)
	}
	s.logger.Info().Int("room_id", roomID).Str("archive_key", prefix).Msg("room archived")
	return prefix, nil
}

// archiveResult is finalResult, except that a bracket decided by a single
// final still yields a winner and a runner-up.
func archiveResult(snap *roomSnapshot) (*models.FinalResult, error) {
	result, err := finalResult(snap)
	if !errors.Is(err, ErrBracketTooShort) {
		return result, err
	}

	final := bracketMatches(snap.matches)
	if len(final) != 1 || final[0].WinnerID == nil {
		return nil, ErrNoChampion
	}
	winner := snap.roster.Name(*final[0].WinnerID)
	result = &models.FinalResult{
		RoomID:      snap.room.ID,
		MatchFormat: snap.room.MatchFormat,
		Winner:      &winner,
		JointThird:  []string{},
	}
	if loser := final[0].Loser(); loser != nil {
		runnerUp := snap.roster.Name(*loser)
		result.RunnerUp = &runnerUp
	}
	return result, nil
}

func (s *archiveService) upload(ctx context.Context, prefix string, snap *roomSnapshot, result *models.FinalResult) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode final result: %w", err)
	}
	if _, err := s.uploader.Upload(ctx, prefix+finalResultObject, "application/json", bytes.NewReader(payload)); err != nil {
		return err
	}

	workbook, err := StandingsWorkbook(snap.room, snap.groups, snap.matches, snap.roster, result)
	if err != nil {
		return err
	}
	if _, err := s.uploader.Upload(ctx, prefix+standingsObject, xlsxContentType, bytes.NewReader(workbook)); err != nil {
		return err
	}
	return nil
}

// ArchivePrefix builds "rooms/<id>-<slug>/<id>/" for one archive run.
func ArchivePrefix(room *models.Room, runID string) string {
	name := slug.Make(room.Title)
	if name == "" {
		name = "room"
	}
	return fmt.Sprintf("rooms/%d-%s/%s/", room.ID, name, runID)
}

// StandingsWorkbook renders a summary sheet followed by one standings sheet
// per group.
func StandingsWorkbook(room *models.Room, groups []*models.Group, matches []*models.Match, roster brackets.Roster, result *models.FinalResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Result"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), summary); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Room", room.Title},
		{"Format", string(room.MatchFormat)},
		{"Winner", derefName(result.Winner)},
		{"Runner-up", derefName(result.RunnerUp)},
	}
	for _, name := range result.JointThird {
		rows = append(rows, []interface{}{"Joint third", name})
	}
	if err := writeRows(f, summary, rows); err != nil {
		return nil, err
	}

	for _, group := range groups {
		sheet := "Group " + group.Name
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		table := [][]interface{}{{"Rank", "Name", "Played", "Wins", "Losses", "Points", "Games won", "Games lost"}}
		for _, st := range brackets.CalculateStandings(brackets.MatchesOfGroup(matches, group.ID), roster, room.RankingMode) {
			table = append(table, []interface{}{st.Rank, st.Name, st.Played, st.Wins, st.Losses, st.Points, st.GamesWon, st.GamesLost})
		}
		if err := writeRows(f, sheet, table); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %s: %w", idx+1, sheet, err)
		}
	}
	return nil
}

func derefName(name *string) string {
	if name == nil {
		return ""
	}
	return *name
}
