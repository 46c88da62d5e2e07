package cards

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	appErr "callbreak-service/pkg/errors"
)

// Dealer shuffles and deals. It is safe for concurrent use.
type Dealer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDealer builds a dealer over src. A nil src is seeded from the clock.
func NewDealer(src rand.Source) *Dealer {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Dealer{rng: rand.New(src)}
}

// NewSeededDealer is a deterministic dealer, mostly for tests and replays.
func NewSeededDealer(seed uint64) *Dealer {
	return NewDealer(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type DealtHand struct {
	PlayerID int64
	Hand     Hand
}

// Deal shuffles a deck sized for len(players) and splits it into equal hands.
// The first hand goes to the seat after dealerID in ascending-id order.
func (d *Dealer) Deal(players []int64, dealerID int64) ([]DealtHand, error) {
	seating := SeatingOrder(players)
	deck, err := BuildDeck(len(seating))
	if err != nil {
		return nil, err
	}
	dealerIdx := indexOf(seating, dealerID)
	if dealerIdx < 0 {
		return nil, fmt.Errorf("%w: dealer %d is not seated", appErr.ErrPlayerNotFound, dealerID)
	}

	d.mu.Lock()
	d.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	d.mu.Unlock()

	handSize := len(deck) / len(seating)
	hands := make([]DealtHand, 0, len(seating))
	for i := range seating {
		chunk := make(Hand, handSize)
		copy(chunk, deck[i*handSize:(i+1)*handSize])
		hands = append(hands, DealtHand{
			PlayerID: seating[(dealerIdx+1+i)%len(seating)],
			Hand:     chunk,
		})
	}
	return hands, nil
}

// PickDealer chooses a uniformly random seat.
func (d *Dealer) PickDealer(players []int64) (int64, error) {
	if len(players) == 0 {
		return 0, fmt.Errorf("%w: no players seated", appErr.ErrUnsupportedPlayerCount)
	}
	seating := SeatingOrder(players)
	d.mu.Lock()
	idx := d.rng.IntN(len(seating))
	d.mu.Unlock()
	return seating[idx], nil
}

// SeatingOrder is the canonical rotation: ascending player id.
func SeatingOrder(players []int64) []int64 {
	out := append([]int64(nil), players...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextInRotation returns the seat after playerID, wrapping around.
func NextInRotation(seating []int64, playerID int64) (int64, bool) {
	idx := indexOf(seating, playerID)
	if idx < 0 {
		return 0, false
	}
	return seating[(idx+1)%len(seating)], true
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
