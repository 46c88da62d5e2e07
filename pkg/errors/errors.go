package errors

import "errors"

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindRejected
	KindConflict
	// KindIntegrity means the ledger is in a state the engine can never produce.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	case KindConflict:
		return "conflict"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// KindOf returns the kind of the first *Error found in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the machine-readable code of err, or "internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// Input / format
var (
	ErrMalformedCard          = newError(KindInvalid, "malformed_card", "malformed card")
	ErrInvalidMagnitude       = newError(KindInvalid, "invalid_magnitude", "invalid card magnitude")
	ErrInvalidSuit            = newError(KindInvalid, "invalid_suit", "invalid card suit")
	ErrUnsupportedPlayerCount = newError(KindInvalid, "unsupported_player_count", "unsupported number of players")
	ErrInvalidDeclaration     = newError(KindInvalid, "invalid_declaration", "declared score out of range")
)

// Lookup
var (
	ErrPlayerNotFound     = newError(KindNotFound, "player_not_found", "player not found")
	ErrTableNotFound      = newError(KindNotFound, "table_not_found", "table not found")
	ErrActiveGameNotFound = newError(KindNotFound, "active_game_not_found", "active game not found")
	ErrRoundNotFound      = newError(KindNotFound, "round_not_found", "round not found")
	ErrTurnNotFound       = newError(KindNotFound, "turn_not_found", "no turn recorded yet")
)

// Rule violations
var (
	ErrOutOfTurnPlay              = newError(KindRejected, "out_of_turn", "it's not your turn")
	ErrNotYourCard                = newError(KindRejected, "not_your_card", "card is not in your hand")
	ErrScoreDeclarationIncomplete = newError(KindRejected, "score_declaration_incomplete", "not all players have declared a score")
	ErrTableFull                  = newError(KindRejected, "table_full", "table is full")
	ErrTableInactive              = newError(KindRejected, "table_inactive", "table is not active")
	ErrTableNotFull               = newError(KindRejected, "table_not_full", "not enough players")
	ErrNotTableAdmin              = newError(KindRejected, "not_table_admin", "only the table admin can do that")
	ErrUnauthorized               = newError(KindRejected, "unauthorized", "unauthorized")
)

// Conflicts
var (
	ErrDuplicateScoreDeclaration = newError(KindConflict, "duplicate_score_declaration", "score already declared for this game")
	ErrGameInProgress            = newError(KindConflict, "game_in_progress", "a game is already in progress")
)

// Integrity
var (
	ErrMissingRoundWinner = newError(KindIntegrity, "missing_round_winner", "completed round has no winner")
)
