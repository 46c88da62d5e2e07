package game

import (
	"errors"

	"callbreak-service/internal/model"
	appErr "callbreak-service/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockRunningGame loads the table's active, unfinished game and holds its row
// until the transaction ends.
func lockRunningGame(tx *gorm.DB, tableID int64) (*model.Game, error) {
	var game model.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("table_id = ? AND is_active = ? AND is_finished = ?", tableID, true, false).
		Order("id DESC").
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrActiveGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

// activeGame is the table's current game, finished or not. A finished game
// stays active until the next one is started.
func activeGame(db *gorm.DB, tableID int64) (*model.Game, error) {
	var game model.Game
	err := db.Where("table_id = ? AND is_active = ?", tableID, true).
		Order("id DESC").
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrActiveGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

// loadLedger reads plays before rounds: rounds are only ever added or given a
// winner, so the rounds read second always cover every play read first.
func loadLedger(db *gorm.DB, gameID int64) (*Ledger, error) {
	var plays []model.Play
	if err := db.Where("game_id = ?", gameID).Order("id ASC").Find(&plays).Error; err != nil {
		return nil, err
	}
	var rounds []model.Round
	if err := db.Where("game_id = ?", gameID).Order("round_number ASC").Find(&rounds).Error; err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, appErr.ErrRoundNotFound
	}

	ledger := &Ledger{GameID: gameID, Rounds: rounds, Entries: make([]Entry, 0, len(plays))}
	for _, p := range plays {
		e, err := entryFromPlay(p)
		if err != nil {
			return nil, err
		}
		ledger.Entries = append(ledger.Entries, e)
	}
	return ledger, nil
}

func countScores(tx *gorm.DB, gameID int64) (int64, error) {
	var n int64
	err := tx.Model(&model.Score{}).Where("game_id = ?", gameID).Count(&n).Error
	return n, err
}
