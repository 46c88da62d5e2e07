package game

import (
	"context"
	"sync"

	"callbreak-service/internal/cards"
	"callbreak-service/internal/model"
	"callbreak-service/pkg/logger"

	"gorm.io/gorm"
)

// Seating is the directory of tables and seated players the engine reads.
type Seating interface {
	PlayerByID(ctx context.Context, id int64) (*model.Player, error)
	TableByID(ctx context.Context, id int64) (*model.Table, error)
	Players(ctx context.Context, tableID int64) ([]model.Player, error)
}

// Notifier is told about table events after they are committed. Delivery is
// best effort; implementations log and swallow their own failures.
type Notifier interface {
	CardsDealt(ctx context.Context, tableUID string)
	ScoresUpdated(ctx context.Context, tableUID string)
	CardPlayed(ctx context.Context, tableUID string, summary TurnSummary)
}

type nopNotifier struct{}

func (nopNotifier) CardsDealt(context.Context, string)              {}
func (nopNotifier) ScoresUpdated(context.Context, string)           {}
func (nopNotifier) CardPlayed(context.Context, string, TurnSummary) {}

// Service runs the turn, trick and scoring engine over the play ledger.
type Service struct {
	db       *gorm.DB
	seats    Seating
	notifier Notifier
	dealer   *cards.Dealer

	// one writer per table at a time
	locks sync.Map // tableID -> *sync.Mutex
}

func NewService(db *gorm.DB, seats Seating, notifier Notifier, dealer *cards.Dealer) *Service {
	logger.Ensure()
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if dealer == nil {
		dealer = cards.NewDealer(nil)
	}
	return &Service{
		db:       db,
		seats:    seats,
		notifier: notifier,
		dealer:   dealer,
	}
}

func (s *Service) lockTable(tableID int64) func() {
	v, _ := s.locks.LoadOrStore(tableID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// TurnSummary describes the most recent ledger entry and whose turn is next.
type TurnSummary struct {
	PlayerID     int64  `json:"playerId"`
	PlayerName   string `json:"playerName"`
	PlayedCard   string `json:"playedCard"`
	RoundIsOver  bool   `json:"roundIsOver"`
	GameIsOver   bool   `json:"gameIsOver"`
	NextPlayerID int64  `json:"nextPlayerId"`
}

type PlayedCard struct {
	PlayerID int64  `json:"playerId"`
	Card     string `json:"card"`
}

// seatingIDs returns the player ids of a table in rotation order.
func seatingIDs(players []model.Player) []int64 {
	ids := make([]int64, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return cards.SeatingOrder(ids)
}

func nameOf(players []model.Player, id int64) string {
	for _, p := range players {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}
