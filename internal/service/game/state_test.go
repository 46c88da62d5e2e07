package game_test

import (
	"errors"
	"testing"

	"callbreak-service/internal/cards"
	"callbreak-service/internal/service/game"
	appErr "callbreak-service/pkg/errors"
)

var seating = []int64{1, 2, 3, 4}

func hand(t *testing.T, s string) cards.Hand {
	t.Helper()
	h, err := cards.ParseHand(s)
	if err != nil {
		t.Fatalf("bad hand %q: %v", s, err)
	}
	return h
}

// dealt returns a round-0 ledger where player 4 dealt.
func dealt(t *testing.T) []game.Entry {
	return []game.Entry{
		game.DealEntry{PlayerID: 1, RoundID: 100, Hand: hand(t, "AS,2D")},
		game.DealEntry{PlayerID: 2, RoundID: 100, Hand: hand(t, "KS,3D")},
		game.DealEntry{PlayerID: 3, RoundID: 100, Hand: hand(t, "QS,4D")},
		game.DealEntry{PlayerID: 4, RoundID: 100, Hand: hand(t, "JS,5D")},
	}
}

func play(t *testing.T, player, round int64, remaining, card string) game.PlayEntry {
	return game.PlayEntry{PlayerID: player, RoundID: round, Hand: hand(t, remaining), Card: cards.MustParse(card)}
}

func TestStateWithoutEntries(t *testing.T) {
	if _, err := game.DetermineState(nil, seating, nil, 1); !errors.Is(err, appErr.ErrTurnNotFound) {
		t.Fatalf("expected ErrTurnNotFound, got %v", err)
	}
}

func TestStateUnseatedRequester(t *testing.T) {
	if _, err := game.DetermineState(dealt(t), seating, nil, 9); !errors.Is(err, appErr.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestStateAfterDeal(t *testing.T) {
	st, err := game.DetermineState(dealt(t), seating, nil, 2)
	if err != nil {
		t.Fatalf("determine state: %v", err)
	}
	if !st.RoundComplete {
		t.Fatalf("deal round should be complete")
	}
	if st.NextPlayerID != 1 {
		t.Fatalf("expected seat after dealer 4 to lead, got %d", st.NextPlayerID)
	}
	if st.GameOver {
		t.Fatalf("game cannot be over after the deal")
	}
	if st.TurnsRemainingInRound != 0 {
		t.Fatalf("expected 0 turns remaining in round, got %d", st.TurnsRemainingInRound)
	}
	if st.TurnsRemainingInGame != 52 {
		t.Fatalf("expected 52 turns remaining in game, got %d", st.TurnsRemainingInGame)
	}
	if st.RequesterHand.String() != "KS,3D" {
		t.Fatalf("unexpected requester hand %q", st.RequesterHand)
	}
}

func TestStateMidRound(t *testing.T) {
	entries := append(dealt(t),
		play(t, 1, 101, "2D", "AS"),
		play(t, 2, 101, "3D", "KS"),
	)
	st, err := game.DetermineState(entries, seating, nil, 1)
	if err != nil {
		t.Fatalf("determine state: %v", err)
	}
	if st.RoundComplete || st.NextPlayerID != 3 {
		t.Fatalf("expected round in progress with player 3 next, got %+v", st)
	}
	if st.TurnsRemainingInRound != 2 || st.TurnsRemainingInGame != 50 {
		t.Fatalf("unexpected turn counts: round=%d game=%d", st.TurnsRemainingInRound, st.TurnsRemainingInGame)
	}
	if st.RequesterHand.String() != "2D" {
		t.Fatalf("requester hand should reflect their play, got %q", st.RequesterHand)
	}
}

func TestStateCompletedTrickUsesWinner(t *testing.T) {
	entries := append(dealt(t),
		play(t, 1, 101, "2D", "AS"),
		play(t, 2, 101, "3D", "KS"),
		play(t, 3, 101, "4D", "QS"),
		play(t, 4, 101, "5D", "JS"),
	)
	st, err := game.DetermineState(entries, seating, map[int64]int64{101: 1}, 4)
	if err != nil {
		t.Fatalf("determine state: %v", err)
	}
	if !st.RoundComplete || st.NextPlayerID != 1 {
		t.Fatalf("expected winner 1 to lead next, got %+v", st)
	}
	if st.GameOver {
		t.Fatalf("hands are not empty yet")
	}
}

func TestStateMissingWinnerIsIntegrityFault(t *testing.T) {
	entries := append(dealt(t),
		play(t, 1, 101, "2D", "AS"),
		play(t, 2, 101, "3D", "KS"),
		play(t, 3, 101, "4D", "QS"),
		play(t, 4, 101, "5D", "JS"),
	)
	_, err := game.DetermineState(entries, seating, map[int64]int64{}, 1)
	if !errors.Is(err, appErr.ErrMissingRoundWinner) {
		t.Fatalf("expected ErrMissingRoundWinner, got %v", err)
	}
	if appErr.KindOf(err) != appErr.KindIntegrity {
		t.Fatalf("expected integrity kind, got %s", appErr.KindOf(err))
	}
}

func TestStateGameOver(t *testing.T) {
	two := []int64{1, 2}
	entries := []game.Entry{
		game.DealEntry{PlayerID: 2, RoundID: 1, Hand: hand(t, "AS")},
		game.DealEntry{PlayerID: 1, RoundID: 1, Hand: hand(t, "2H")},
		play(t, 2, 2, "", "AS"),
		play(t, 1, 2, "", "2H"),
	}
	st, err := game.DetermineState(entries, two, map[int64]int64{2: 2}, 1)
	if err != nil {
		t.Fatalf("determine state: %v", err)
	}
	if !st.GameOver || st.NextPlayerID != 2 {
		t.Fatalf("expected finished game led by winner, got %+v", st)
	}
	if len(st.RequesterHand) != 0 {
		t.Fatalf("expected empty hand, got %q", st.RequesterHand)
	}
}

func TestStateIsRepeatable(t *testing.T) {
	entries := append(dealt(t), play(t, 1, 101, "2D", "AS"))
	first, err := game.DetermineState(entries, seating, nil, 3)
	if err != nil {
		t.Fatalf("determine state: %v", err)
	}
	second, err := game.DetermineState(entries, seating, nil, 3)
	if err != nil {
		t.Fatalf("determine state: %v", err)
	}
	if first.NextPlayerID != second.NextPlayerID || first.TurnsRemainingInGame != second.TurnsRemainingInGame {
		t.Fatalf("snapshots differ: %+v vs %+v", first, second)
	}
}

func TestHandCounts(t *testing.T) {
	entries := append(dealt(t), play(t, 1, 101, "2D", "AS"))
	counts := game.HandCounts(entries, seating)
	want := map[int64]int{1: 1, 2: 2, 3: 2, 4: 2}
	for id, n := range want {
		if counts[id] != n {
			t.Fatalf("player %d: expected %d cards, got %d", id, n, counts[id])
		}
	}
}
