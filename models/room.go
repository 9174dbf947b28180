package models

import "time"

// RoomStatus представляет этапы жизненного цикла комнаты.
type RoomStatus string

const (
	RoomStatusOpen       RoomStatus = "open"
	RoomStatusInProgress RoomStatus = "in_progress"
	RoomStatusCompleted  RoomStatus = "completed"
)

type GameType string

const (
	GameTypeSingle GameType = "single"
	GameTypeDouble GameType = "double"
	GameTypeTeam   GameType = "team"
)

// IsTeamBased reports whether competitors in this game type are teams.
func (g GameType) IsTeamBased() bool {
	return g == GameTypeDouble || g == GameTypeTeam
}

func (g GameType) Valid() bool {
	switch g {
	case GameTypeSingle, GameTypeDouble, GameTypeTeam:
		return true
	}
	return false
}

// MatchFormat определяет, есть ли после групп стадия плей-офф.
type MatchFormat string

const (
	MatchFormatRoundRobin            MatchFormat = "round_robin"
	MatchFormatPreliminaryTournament MatchFormat = "preliminary_tournament"
)

func (f MatchFormat) Valid() bool {
	return f == MatchFormatRoundRobin || f == MatchFormatPreliminaryTournament
}

// HasBracket reports whether the format ends with an elimination bracket.
func (f MatchFormat) HasBracket() bool {
	return f == MatchFormatPreliminaryTournament
}

type RankingMode string

const (
	RankingByPoints RankingMode = "points"
	RankingByWins   RankingMode = "wins"
)

func (m RankingMode) Valid() bool {
	return m == RankingByPoints || m == RankingByWins
}

// BracketLayout управляет отображением сетки: единым списком или двумя половинами.
type BracketLayout string

const (
	BracketLayoutStandard BracketLayout = "standard"
	BracketLayoutSplit    BracketLayout = "split"
)

func (l BracketLayout) Valid() bool {
	return l == BracketLayoutStandard || l == BracketLayoutSplit
}

const DefaultTeamSize = 2

type Room struct {
	ID                int           `json:"id" db:"id"`
	Title             string        `json:"title" db:"title"`
	GameType          GameType      `json:"game_type" db:"game_type"`
	MatchFormat       MatchFormat   `json:"match_format" db:"match_format"`
	RankingMode       RankingMode   `json:"ranking_mode" db:"ranking_mode"`
	BracketLayout     BracketLayout `json:"bracket_layout" db:"bracket_layout"`
	PlayersPerGroup   int           `json:"players_per_group" db:"players_per_group"`
	AdvancingPerGroup int           `json:"advancing_per_group" db:"advancing_per_group"`
	TeamSize          int           `json:"team_size" db:"team_size"`
	MaxParticipants   int           `json:"max_participants" db:"max_participants"`
	Status            RoomStatus    `json:"status" db:"status"`
	ArchiveKey        *string       `json:"archive_key,omitempty" db:"archive_key"`
	ArchivedAt        *time.Time    `json:"archived_at,omitempty" db:"archived_at"`
	ArchiveFailedAt   *time.Time    `json:"archive_failed_at,omitempty" db:"archive_failed_at"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}
