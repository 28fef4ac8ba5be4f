package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEventNotFound   = errors.New("session event not found")
	ErrRequestNotFound = errors.New("narrative request not found")

	// Authentication / Authorization Errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenInvalid = errors.New("token is invalid")

	// Turn-Phase Protocol Errors
	ErrPhaseTransition = errors.New("turn phase transition is not allowed")
	ErrNotYourTurn     = errors.New("action is not allowed outside my_turn phase")

	// Action Validation Errors (advisory, resolved before any network hop)
	ErrNoAbilityChosen      = errors.New("no ability chosen")
	ErrNoTargetChosen       = errors.New("no target chosen")
	ErrTargetNotInSet       = errors.New("target is not in the legal candidate set")
	ErrEmptyNarration       = errors.New("narration text is empty")
	ErrInsufficientPoolA    = errors.New("insufficient pool-a resource for ability")
	ErrInsufficientPoolB    = errors.New("insufficient pool-b resource for ability")
	ErrParticipantNotInRoom = errors.New("participant is not in the session roster")

	// Narrative Consensus Errors
	ErrAlreadyVoted     = errors.New("participant has already voted on this request")
	ErrVotingClosed     = errors.New("narrative request is no longer open for voting")
	ErrRangeNotSelected = errors.New("reflection range is not fully selected")
	ErrRangeInvalid     = errors.New("range boundary is not a narration event of this session")

	// External payload errors
	ErrMalformedJudgment = errors.New("malformed judgment payload")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
