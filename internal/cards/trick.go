package cards

type TrickPlay struct {
	PlayerID int64
	Card     Card
}

// ResolveTrick returns the winner of a completed trick. plays must be in the
// order they were made. The highest trump wins; without trump, the highest
// card of the leading suit wins.
func ResolveTrick(plays []TrickPlay) (int64, bool) {
	if len(plays) == 0 {
		return 0, false
	}
	if winner, ok := highestOfSuit(plays, Trump); ok {
		return winner, true
	}
	return highestOfSuit(plays, plays[0].Card.Suit)
}

func highestOfSuit(plays []TrickPlay, suit Suit) (int64, bool) {
	var (
		best   Magnitude
		winner int64
		found  bool
	)
	for _, p := range plays {
		if p.Card.Suit != suit {
			continue
		}
		if !found || p.Card.Magnitude > best {
			best = p.Card.Magnitude
			winner = p.PlayerID
			found = true
		}
	}
	return winner, found
}
