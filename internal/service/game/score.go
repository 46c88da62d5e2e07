package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"callbreak-service/internal/cards"
	"callbreak-service/internal/model"
	appErr "callbreak-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlayerScore struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Declared   int    `json:"declared"`
	Actual     int    `json:"actual"`
}

type GameScores struct {
	GameID   int64         `json:"gameId"`
	Active   bool          `json:"active"`
	Finished bool          `json:"finished"`
	Scores   []PlayerScore `json:"scores"`
}

// DeclareScore records the caller's predicted trick count for the running
// game. Each player declares exactly once, before the first trick.
func (s *Service) DeclareScore(ctx context.Context, playerID int64, predicted int) (*model.Score, error) {
	sc, err := s.seatOf(ctx, playerID)
	if err != nil {
		return nil, err
	}
	handSize, err := cards.HandSize(len(sc.seating))
	if err != nil {
		return nil, err
	}
	if predicted < 1 || predicted > handSize {
		return nil, fmt.Errorf("%w: must be between 1 and %d", appErr.ErrInvalidDeclaration, handSize)
	}

	unlock := s.lockTable(sc.table.ID)
	defer unlock()

	var score model.Score
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game, err := lockRunningGame(tx, sc.table.ID)
		if err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&model.Score{}).
			Where("game_id = ? AND player_id = ?", game.ID, playerID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return appErr.ErrDuplicateScoreDeclaration
		}

		score = model.Score{GameID: game.ID, PlayerID: playerID, DeclaredScore: predicted}
		if err := tx.Create(&score).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return appErr.ErrDuplicateScoreDeclaration
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ScoresUpdated(ctx, sc.table.UID)
	return &score, nil
}

// resolveRound records the winner of a completed trick and credits them.
func resolveRound(tx *gorm.DB, ledger *Ledger, round *model.Round) (int64, error) {
	winner, ok := cards.ResolveTrick(ledger.TrickPlays(round.ID))
	if !ok {
		return 0, fmt.Errorf("%w: round %d has no plays", appErr.ErrMissingRoundWinner, round.ID)
	}
	if err := tx.Model(&model.Round{}).
		Where("id = ?", round.ID).
		Update("winner_player_id", winner).Error; err != nil {
		return 0, err
	}
	round.WinnerPlayerID = &winner

	res := tx.Model(&model.Score{}).
		Where("game_id = ? AND player_id = ?", ledger.GameID, winner).
		Update("actual_score", gorm.Expr("actual_score + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("no score row for round winner %d", winner)
	}
	return winner, nil
}

// finalizeGame recounts every player's tricks from the recorded round
// winners and marks the game finished with a standings snapshot.
func finalizeGame(tx *gorm.DB, game *model.Game, players []model.Player) error {
	var rounds []model.Round
	if err := tx.Where("game_id = ? AND winner_player_id IS NOT NULL", game.ID).Find(&rounds).Error; err != nil {
		return err
	}
	won := make(map[int64]int, len(players))
	for _, r := range rounds {
		won[*r.WinnerPlayerID]++
	}

	for _, p := range players {
		if err := tx.Model(&model.Score{}).
			Where("game_id = ? AND player_id = ?", game.ID, p.ID).
			Update("actual_score", won[p.ID]).Error; err != nil {
			return err
		}
	}

	standings, err := loadScores(tx, game.ID, players)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(standings)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := tx.Model(&model.Game{}).Where("id = ?", game.ID).Updates(map[string]interface{}{
		"is_finished": true,
		"finished_at": now,
		"result_json": datatypes.JSON(raw),
	}).Error; err != nil {
		return err
	}
	game.IsFinished = true
	game.FinishedAt = &now
	game.ResultJSON = raw
	return nil
}

func loadScores(db *gorm.DB, gameID int64, players []model.Player) ([]PlayerScore, error) {
	var rows []model.Score
	if err := db.Where("game_id = ?", gameID).Order("player_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]PlayerScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, PlayerScore{
			PlayerID:   r.PlayerID,
			PlayerName: nameOf(players, r.PlayerID),
			Declared:   r.DeclaredScore,
			Actual:     r.ActualScore,
		})
	}
	return out, nil
}

// GetScores lists declared and actual scores for one game.
func (s *Service) GetScores(ctx context.Context, gameID int64) ([]PlayerScore, error) {
	var game model.Game
	if err := s.db.WithContext(ctx).First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game %d", appErr.ErrActiveGameNotFound, gameID)
		}
		return nil, err
	}
	players, err := s.seats.Players(ctx, game.TableID)
	if err != nil {
		return nil, err
	}
	return loadScores(s.db.WithContext(ctx), game.ID, players)
}

// ScoresFor is GetScores restricted to games at the caller's table. A zero
// gameID selects the table's active game.
func (s *Service) ScoresFor(ctx context.Context, playerID, gameID int64) ([]PlayerScore, error) {
	player, err := s.seats.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	var game *model.Game
	if gameID == 0 {
		game, err = activeGame(s.db.WithContext(ctx), player.TableID)
		if err != nil {
			return nil, err
		}
	} else {
		game = &model.Game{}
		if err := s.db.WithContext(ctx).First(game, gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: game %d", appErr.ErrActiveGameNotFound, gameID)
			}
			return nil, err
		}
		if game.TableID != player.TableID {
			return nil, appErr.ErrUnauthorized
		}
	}
	return s.GetScores(ctx, game.ID)
}

// TableScores returns the scores of every game played at the caller's table,
// oldest first.
func (s *Service) TableScores(ctx context.Context, playerID int64) ([]GameScores, error) {
	player, err := s.seats.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	players, err := s.seats.Players(ctx, player.TableID)
	if err != nil {
		return nil, err
	}

	var games []model.Game
	if err := s.db.WithContext(ctx).
		Where("table_id = ?", player.TableID).
		Order("id ASC").
		Find(&games).Error; err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return []GameScores{}, nil
	}

	ids := make([]int64, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	var rows []model.Score
	if err := s.db.WithContext(ctx).
		Where("game_id IN ?", ids).
		Order("player_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byGame := make(map[int64][]PlayerScore, len(games))
	for _, r := range rows {
		byGame[r.GameID] = append(byGame[r.GameID], PlayerScore{
			PlayerID:   r.PlayerID,
			PlayerName: nameOf(players, r.PlayerID),
			Declared:   r.DeclaredScore,
			Actual:     r.ActualScore,
		})
	}

	out := make([]GameScores, 0, len(games))
	for _, g := range games {
		scores := byGame[g.ID]
		if scores == nil {
			scores = []PlayerScore{}
		}
		out = append(out, GameScores{
			GameID:   g.ID,
			Active:   g.IsActive,
			Finished: g.IsFinished,
			Scores:   scores,
		})
	}
	return out, nil
}
