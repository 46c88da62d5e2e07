package cards

import (
	"fmt"

	appErr "callbreak-service/pkg/errors"
)

const FullDeckSize = 52

var fullDeck = newFullDeck()

// Removed first-to-last when a player count needs a smaller deck.
var lowCards = []Card{
	{Magnitude: 2, Suit: Diamonds},
	{Magnitude: 2, Suit: Hearts},
	{Magnitude: 2, Suit: Clubs},
	{Magnitude: 3, Suit: Diamonds},
	{Magnitude: 3, Suit: Hearts},
	{Magnitude: 3, Suit: Clubs},
}

var removalCounts = map[int]int{
	2: 0,
	3: 1,
	4: 0,
	5: 2,
	6: 4,
}

func newFullDeck() []Card {
	magnitudes := []Magnitude{Ace, 2, 3, 4, 5, 6, 7, 8, 9, 10, Jack, Queen, King}
	suits := []Suit{Spades, Clubs, Diamonds, Hearts}
	deck := make([]Card, 0, FullDeckSize)
	for _, m := range magnitudes {
		for _, s := range suits {
			deck = append(deck, Card{Magnitude: m, Suit: s})
		}
	}
	return deck
}

// RemovalCount is how many low cards are taken out for playerCount players.
func RemovalCount(playerCount int) (int, error) {
	n, ok := removalCounts[playerCount]
	if !ok {
		return 0, fmt.Errorf("%w: %d", appErr.ErrUnsupportedPlayerCount, playerCount)
	}
	return n, nil
}

func DeckSize(playerCount int) (int, error) {
	n, err := RemovalCount(playerCount)
	if err != nil {
		return 0, err
	}
	return FullDeckSize - n, nil
}

// HandSize is the number of cards each player is dealt.
func HandSize(playerCount int) (int, error) {
	size, err := DeckSize(playerCount)
	if err != nil {
		return 0, err
	}
	return size / playerCount, nil
}

// BuildDeck returns a fresh, unshuffled deck sized for playerCount.
func BuildDeck(playerCount int) ([]Card, error) {
	n, err := RemovalCount(playerCount)
	if err != nil {
		return nil, err
	}
	removed := make(map[Card]struct{}, n)
	for _, c := range lowCards[:n] {
		removed[c] = struct{}{}
	}
	deck := make([]Card, 0, FullDeckSize-n)
	for _, c := range fullDeck {
		if _, skip := removed[c]; skip {
			continue
		}
		deck = append(deck, c)
	}
	return deck, nil
}
