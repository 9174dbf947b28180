package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/db"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
	"github.com/Dosada05/pingpong-league/services"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("league"),
		postgres.WithUsername("league"),
		postgres.WithPassword("league"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Connect(dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.MigrateUp(conn))
	return conn
}

func newServices(conn *sql.DB) (services.RoomService, services.TournamentService, services.Repositories) {
	repos := services.Repositories{
		Rooms:        repositories.NewPostgresRoomRepository(conn),
		Participants: repositories.NewPostgresParticipantRepository(conn),
		Teams:        repositories.NewPostgresTeamRepository(conn),
		Groups:       repositories.NewPostgresGroupRepository(conn),
		Matches:      repositories.NewPostgresMatchRepository(conn),
	}
	tx := db.NewTxRunner(conn)
	rooms := services.NewRoomService(tx, repos, services.RoomDefaults{PlayersPerGroup: 4, AdvancingPerGroup: 2}, brackets.NewRand(3), zerolog.Nop())
	tournaments := services.NewTournamentService(tx, repos, nil, zerolog.Nop(), services.TournamentServiceConfig{
		AllowSimulation: true,
		Rand:            brackets.NewRand(5),
	})
	return rooms, tournaments, repos
}

func TestPostgres(t *testing.T) {
	conn := startPostgres(t)
	rooms, tournaments, repos := newServices(conn)
	ctx := context.Background()

	t.Run("migration version", func(t *testing.T) {
		version, dirty, ok, err := db.MigrationVersion(conn)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, dirty)
		assert.EqualValues(t, 3, version)
	})

	t.Run("duplicate participant name", func(t *testing.T) {
		room, err := rooms.CreateRoom(ctx, services.CreateRoomInput{Title: "Duplicates"})
		require.NoError(t, err)

		_, err = rooms.AddParticipant(ctx, room.ID, services.AddParticipantInput{Name: "Timo"})
		require.NoError(t, err)
		_, err = rooms.AddParticipant(ctx, room.ID, services.AddParticipantInput{Name: "Timo"})
		assert.ErrorIs(t, err, services.ErrParticipantConflict)
	})

	t.Run("failed batch leaves no trace", func(t *testing.T) {
		room := seedRoom(t, rooms, "Batch", 3)
		_, err := tournaments.GenerateGroupStage(ctx, room.ID)
		require.NoError(t, err)

		matches, err := tournaments.ListMatches(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, matches, 3)

		_, err = tournaments.BulkRecordResults(ctx, room.ID, []services.ResultInput{
			{MatchID: matches[0].ID, Score1: 3, Score2: 1},
			{MatchID: matches[1].ID, Score1: 2, Score2: 2},
		})
		require.ErrorIs(t, err, services.ErrDrawNotAllowed)

		stored, err := repos.Matches.GetByID(ctx, nil, matches[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPending, stored.Status)
	})

	t.Run("full preliminary tournament", func(t *testing.T) {
		room := seedRoom(t, rooms, "Autumn Open", 8)

		groups, err := tournaments.GenerateGroupStage(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, groups, 2)

		_, err = tournaments.SimulateGroupStage(ctx, room.ID)
		require.NoError(t, err)

		start, err := tournaments.AdvanceToFinals(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, start.Size)
		assert.Zero(t, start.Byes)

		var champion *int
		for i := 0; i < 3 && champion == nil; i++ {
			_, err = tournaments.SimulateBracketRound(ctx, room.ID)
			require.NoError(t, err)
			advance, err := tournaments.AdvanceBracketRound(ctx, room.ID)
			require.NoError(t, err)
			champion = advance.ChampionID
		}
		require.NotNil(t, champion)

		stored, err := rooms.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoomStatusCompleted, stored.Status)

		result, err := tournaments.GetFinalResult(ctx, room.ID)
		require.NoError(t, err)
		require.NotNil(t, result.Winner)
		assert.Len(t, result.JointThird, 2)

		pending, err := repos.Rooms.ListUnarchivedCompleted(ctx, nil, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, pending)

		require.NoError(t, repos.Rooms.MarkArchiveFailed(ctx, nil, room.ID, time.Now()))
		stored, err = rooms.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.ArchiveFailedAt)
		pending, err = repos.Rooms.ListUnarchivedCompleted(ctx, nil, 10)
		require.NoError(t, err)
		assert.Equal(t, room.ID, pending[len(pending)-1].ID)
	})

	t.Run("bulk add and clear roster", func(t *testing.T) {
		room := seedRoom(t, rooms, "Roster", 2)

		result, err := rooms.AddParticipantsBulk(ctx, room.ID, []string{"Kim", "Kim", " ", "Lee"})
		require.NoError(t, err)
		assert.Len(t, result.Added, 2)
		assert.Len(t, result.Failed, 1)

		removed, err := rooms.ClearParticipants(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, removed)
	})

	t.Run("reset reopens the room", func(t *testing.T) {
		room := seedRoom(t, rooms, "Reset", 4)
		_, err := tournaments.GenerateGroupStage(ctx, room.ID)
		require.NoError(t, err)

		require.NoError(t, tournaments.ResetRoom(ctx, room.ID))

		matches, err := tournaments.ListMatches(ctx, room.ID)
		require.NoError(t, err)
		assert.Empty(t, matches)
		stored, err := rooms.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoomStatusOpen, stored.Status)
	})

	t.Run("migrate down and up again", func(t *testing.T) {
		require.NoError(t, db.MigrateDown(conn, 1))
		version, _, ok, err := db.MigrationVersion(conn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.EqualValues(t, 2, version)

		require.NoError(t, db.MigrateUp(conn))
	})
}

func seedRoom(t *testing.T, rooms services.RoomService, title string, players int) *models.Room {
	t.Helper()
	ctx := context.Background()

	room, err := rooms.CreateRoom(ctx, services.CreateRoomInput{Title: title})
	require.NoError(t, err)
	for i := 0; i < players; i++ {
		_, err := rooms.AddParticipant(ctx, room.ID, services.AddParticipantInput{Name: title + " player " + string(rune('A'+i))})
		require.NoError(t, err)
	}
	return room
}
