package game

import (
	"fmt"

	"callbreak-service/internal/cards"
	appErr "callbreak-service/pkg/errors"
)

// State is everything derivable about a game at one point of its ledger.
// It is never stored.
type State struct {
	Last                  Entry
	RoundComplete         bool
	NextPlayerID          int64
	GameOver              bool
	TurnsRemainingInRound int
	TurnsRemainingInGame  int
	RequesterHand         cards.Hand
}

// DetermineState reconstructs turn state from entries in creation order.
// seating is the table's rotation, winners maps completed trick rounds to
// their recorded winner.
func DetermineState(entries []Entry, seating []int64, winners map[int64]int64, requester int64) (*State, error) {
	n := len(seating)
	deckSize, err := cards.DeckSize(n)
	if err != nil {
		return nil, err
	}
	if _, ok := cards.NextInRotation(seating, requester); !ok {
		return nil, fmt.Errorf("%w: %d is not seated", appErr.ErrPlayerNotFound, requester)
	}
	if len(entries) == 0 {
		return nil, appErr.ErrTurnNotFound
	}

	count := len(entries)
	last := entries[count-1]
	st := &State{
		Last:                 last,
		RoundComplete:        count%n == 0,
		TurnsRemainingInGame: deckSize - (count - n),
		RequesterHand:        cards.Hand{},
	}
	if !st.RoundComplete {
		st.TurnsRemainingInRound = n - count%n
	}

	_, isDeal := last.(DealEntry)
	if !st.RoundComplete || isDeal {
		next, ok := cards.NextInRotation(seating, last.Player())
		if !ok {
			return nil, fmt.Errorf("%w: last entry by unseated player %d", appErr.ErrPlayerNotFound, last.Player())
		}
		st.NextPlayerID = next
	} else {
		winner, ok := winners[last.Round()]
		if !ok {
			return nil, fmt.Errorf("%w: round %d", appErr.ErrMissingRoundWinner, last.Round())
		}
		st.NextPlayerID = winner
	}

	st.GameOver = st.RoundComplete && len(last.Remaining()) == 0

	for i := count - 1; i >= 0; i-- {
		if entries[i].Player() == requester {
			st.RequesterHand = entries[i].Remaining()
			break
		}
	}
	return st, nil
}

// HandCounts returns how many cards each seated player still holds.
func HandCounts(entries []Entry, seating []int64) map[int64]int {
	counts := make(map[int64]int, len(seating))
	for _, id := range seating {
		counts[id] = 0
	}
	for _, e := range entries {
		counts[e.Player()] = len(e.Remaining())
	}
	return counts
}
