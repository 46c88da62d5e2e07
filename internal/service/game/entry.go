package game

import (
	"fmt"

	"callbreak-service/internal/cards"
	"callbreak-service/internal/model"
	appErr "callbreak-service/pkg/errors"
)

// Entry is one ledger record. It is either a DealEntry or a PlayEntry.
type Entry interface {
	Player() int64
	Round() int64
	Remaining() cards.Hand
	isEntry()
}

// DealEntry seeds a player's hand in round 0.
type DealEntry struct {
	PlayerID int64
	RoundID  int64
	Hand     cards.Hand
}

// PlayEntry records one card played into a trick round. Hand is what was
// left after the card was played.
type PlayEntry struct {
	PlayerID int64
	RoundID  int64
	Hand     cards.Hand
	Card     cards.Card
}

func (e DealEntry) Player() int64         { return e.PlayerID }
func (e DealEntry) Round() int64          { return e.RoundID }
func (e DealEntry) Remaining() cards.Hand { return e.Hand }
func (DealEntry) isEntry()                {}

func (e PlayEntry) Player() int64         { return e.PlayerID }
func (e PlayEntry) Round() int64          { return e.RoundID }
func (e PlayEntry) Remaining() cards.Hand { return e.Hand }
func (PlayEntry) isEntry()                {}

func entryFromPlay(p model.Play) (Entry, error) {
	hand, err := cards.ParseHand(p.Hand)
	if err != nil {
		return nil, fmt.Errorf("play %d hand: %w", p.ID, err)
	}
	if p.PlayedCard == "" {
		return DealEntry{PlayerID: p.PlayerID, RoundID: p.RoundID, Hand: hand}, nil
	}
	card, err := cards.Parse(p.PlayedCard)
	if err != nil {
		return nil, fmt.Errorf("play %d card: %w", p.ID, err)
	}
	return PlayEntry{PlayerID: p.PlayerID, RoundID: p.RoundID, Hand: hand, Card: card}, nil
}

func toPlayModel(gameID int64, e Entry) model.Play {
	p := model.Play{
		GameID:   gameID,
		RoundID:  e.Round(),
		PlayerID: e.Player(),
		Hand:     e.Remaining().String(),
	}
	if pe, ok := e.(PlayEntry); ok {
		p.PlayedCard = pe.Card.String()
	}
	return p
}

// Ledger is a game's entries in creation order together with its rounds.
type Ledger struct {
	GameID  int64
	Entries []Entry
	Rounds  []model.Round
}

// Winners maps round id to the recorded trick winner.
func (l *Ledger) Winners() map[int64]int64 {
	winners := make(map[int64]int64, len(l.Rounds))
	for _, r := range l.Rounds {
		if r.WinnerPlayerID != nil {
			winners[r.ID] = *r.WinnerPlayerID
		}
	}
	return winners
}

func (l *Ledger) round(id int64) (*model.Round, error) {
	for i := range l.Rounds {
		if l.Rounds[i].ID == id {
			return &l.Rounds[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", appErr.ErrRoundNotFound, id)
}

// TrickPlays returns the plays of one round in play order.
func (l *Ledger) TrickPlays(roundID int64) []cards.TrickPlay {
	out := make([]cards.TrickPlay, 0)
	for _, e := range l.Entries {
		if pe, ok := e.(PlayEntry); ok && pe.RoundID == roundID {
			out = append(out, cards.TrickPlay{PlayerID: pe.PlayerID, Card: pe.Card})
		}
	}
	return out
}
