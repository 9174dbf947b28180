package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them.
var (
	ErrNotFound             = errors.New("requested resource not found")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidState         = errors.New("operation not allowed in the current state")
	ErrInsufficientEntrants = errors.New("insufficient entrants")
	ErrValidationFailed     = errors.New("validation failed")
	ErrConflict             = errors.New("resource conflict")
)

var (
	ErrRoomNotFound        = fmt.Errorf("%w: room not found", ErrNotFound)
	ErrMatchNotFound       = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrGroupNotFound       = fmt.Errorf("%w: group not found", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant not found", ErrNotFound)

	ErrGroupSizeTooSmall     = fmt.Errorf("%w: players per group must be at least 2", ErrInvalidConfiguration)
	ErrAdvancingCountInvalid = fmt.Errorf("%w: advancing players per group must be at least 1", ErrInvalidConfiguration)
	ErrTeamSizeInvalid       = fmt.Errorf("%w: team size must be at least 2 for team game types", ErrInvalidConfiguration)
	ErrFormatHasNoBracket    = fmt.Errorf("%w: room format has no elimination bracket", ErrInvalidConfiguration)

	ErrRoomNotOpen           = fmt.Errorf("%w: room is not open", ErrInvalidState)
	ErrRoomNotInProgress     = fmt.Errorf("%w: room is not in progress", ErrInvalidState)
	ErrRoomInProgress        = fmt.Errorf("%w: room is in progress", ErrInvalidState)
	ErrRoomFull              = fmt.Errorf("%w: room is full", ErrInvalidState)
	ErrTeamsNotAssigned      = fmt.Errorf("%w: teams must be assigned before the group stage", ErrInvalidState)
	ErrMatchAlreadyCompleted = fmt.Errorf("%w: match is already completed", ErrInvalidState)
	ErrGroupStageIncomplete  = fmt.Errorf("%w: group stage has pending matches", ErrInvalidState)
	ErrNoGroupMatches        = fmt.Errorf("%w: no completed group matches", ErrInvalidState)
	ErrFinalsAlreadyStarted  = fmt.Errorf("%w: elimination bracket already exists", ErrInvalidState)
	ErrRoundIncomplete       = fmt.Errorf("%w: current round has pending matches", ErrInvalidState)
	ErrNoBracketRound        = fmt.Errorf("%w: no bracket round exists", ErrInvalidState)
	ErrMatchesPending        = fmt.Errorf("%w: matches are still pending", ErrInvalidState)
	ErrBracketTooShort       = fmt.Errorf("%w: final result needs at least two bracket rounds", ErrInvalidState)
	ErrNoChampion            = fmt.Errorf("%w: final match has no winner", ErrInvalidState)
	ErrSimulationDisabled    = fmt.Errorf("%w: simulation is disabled", ErrInvalidState)

	ErrNotEnoughCompetitors = fmt.Errorf("%w: at least 2 competitors are required", ErrInsufficientEntrants)
	ErrNotEnoughFinalists   = fmt.Errorf("%w: at least 2 finalists are required", ErrInsufficientEntrants)

	ErrRoomTitleRequired    = fmt.Errorf("%w: room title is required", ErrValidationFailed)
	ErrRoomSettingInvalid   = fmt.Errorf("%w: invalid room setting", ErrValidationFailed)
	ErrParticipantNameEmpty = fmt.Errorf("%w: participant name is required", ErrValidationFailed)
	ErrNoParticipantNames   = fmt.Errorf("%w: no participant names to add", ErrValidationFailed)
	ErrDrawNotAllowed       = fmt.Errorf("%w: scores must differ", ErrValidationFailed)
	ErrNegativeScore        = fmt.Errorf("%w: scores must not be negative", ErrValidationFailed)
	ErrInvalidTeamSetup     = fmt.Errorf("%w: invalid team assignment", ErrValidationFailed)
	ErrGridCompetitor       = fmt.Errorf("%w: competitor does not play in this match", ErrValidationFailed)
	ErrEmptyBatch           = fmt.Errorf("%w: no results given", ErrValidationFailed)

	ErrParticipantConflict = fmt.Errorf("%w: participant name already registered in the room", ErrConflict)
)
