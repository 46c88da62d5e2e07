package cards_test

import (
	"testing"

	"callbreak-service/internal/cards"
)

func TestDealPartitionsDeck(t *testing.T) {
	dealer := cards.NewSeededDealer(42)
	for _, n := range []int{2, 3, 4, 5, 6} {
		players := make([]int64, n)
		for i := range players {
			players[i] = int64(100 + i)
		}

		hands, err := dealer.Deal(players, players[0])
		if err != nil {
			t.Fatalf("players=%d: deal failed: %v", n, err)
		}
		if len(hands) != n {
			t.Fatalf("players=%d: expected %d hands, got %d", n, n, len(hands))
		}

		deck, _ := cards.BuildDeck(n)
		remaining := make(map[cards.Card]int, len(deck))
		for _, c := range deck {
			remaining[c]++
		}
		owners := make(map[int64]bool, n)
		for _, h := range hands {
			if len(h.Hand) != len(deck)/n {
				t.Fatalf("players=%d: hand of %d cards, expected %d", n, len(h.Hand), len(deck)/n)
			}
			if owners[h.PlayerID] {
				t.Fatalf("players=%d: player %d dealt twice", n, h.PlayerID)
			}
			owners[h.PlayerID] = true
			for _, c := range h.Hand {
				remaining[c]--
				if remaining[c] < 0 {
					t.Fatalf("players=%d: card %s dealt more than once", n, c)
				}
			}
		}
		for c, left := range remaining {
			if left != 0 {
				t.Fatalf("players=%d: card %s not dealt", n, c)
			}
		}
	}
}

func TestDealStartsAfterDealer(t *testing.T) {
	dealer := cards.NewSeededDealer(7)
	// Seating order is by ascending id, regardless of input order.
	players := []int64{30, 10, 40, 20}

	hands, err := dealer.Deal(players, 20)
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	want := []int64{30, 40, 10, 20}
	for i, h := range hands {
		if h.PlayerID != want[i] {
			t.Fatalf("hand %d: expected player %d, got %d", i, want[i], h.PlayerID)
		}
	}

	hands, _ = dealer.Deal(players, 40)
	if hands[0].PlayerID != 10 {
		t.Fatalf("expected rotation to wrap to player 10, got %d", hands[0].PlayerID)
	}
}

func TestDealIsDeterministicUnderSeed(t *testing.T) {
	players := []int64{1, 2, 3, 4}
	a, _ := cards.NewSeededDealer(99).Deal(players, 1)
	b, _ := cards.NewSeededDealer(99).Deal(players, 1)
	for i := range a {
		if a[i].Hand.String() != b[i].Hand.String() {
			t.Fatalf("hand %d differs under the same seed", i)
		}
	}
}

func TestDealUnknownDealer(t *testing.T) {
	if _, err := cards.NewSeededDealer(1).Deal([]int64{1, 2, 3, 4}, 9); err == nil {
		t.Fatalf("expected error for dealer not seated")
	}
}

func TestPickDealerIsSeated(t *testing.T) {
	dealer := cards.NewSeededDealer(3)
	players := []int64{5, 6, 7}
	for i := 0; i < 20; i++ {
		id, err := dealer.PickDealer(players)
		if err != nil {
			t.Fatalf("pick dealer: %v", err)
		}
		if id < 5 || id > 7 {
			t.Fatalf("picked unseated dealer %d", id)
		}
	}
}

func TestNextInRotation(t *testing.T) {
	seating := cards.SeatingOrder([]int64{3, 1, 2})
	if next, _ := cards.NextInRotation(seating, 1); next != 2 {
		t.Fatalf("expected 2 after 1, got %d", next)
	}
	if next, _ := cards.NextInRotation(seating, 3); next != 1 {
		t.Fatalf("expected wrap to 1, got %d", next)
	}
	if _, ok := cards.NextInRotation(seating, 4); ok {
		t.Fatalf("expected unknown player to fail")
	}
}
