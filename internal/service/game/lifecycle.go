package game

import (
	"context"
	"errors"
	"fmt"

	"callbreak-service/internal/cards"
	"callbreak-service/internal/model"
	appErr "callbreak-service/pkg/errors"
	"callbreak-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seatContext struct {
	player  *model.Player
	table   *model.Table
	players []model.Player
	seating []int64
}

func (s *Service) seatOf(ctx context.Context, playerID int64) (*seatContext, error) {
	player, err := s.seats.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	table, err := s.seats.TableByID(ctx, player.TableID)
	if err != nil {
		return nil, err
	}
	players, err := s.seats.Players(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	return &seatContext{
		player:  player,
		table:   table,
		players: players,
		seating: seatingIDs(players),
	}, nil
}

// StartGame deals a new game at the admin's table. The previous game, if
// any, must be finished; it is deactivated in the same transaction.
func (s *Service) StartGame(ctx context.Context, adminID int64) (*model.Game, error) {
	sc, err := s.seatOf(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if sc.table.AdminPlayerID == nil || *sc.table.AdminPlayerID != adminID {
		return nil, appErr.ErrNotTableAdmin
	}
	if len(sc.seating) < sc.table.Capacity {
		return nil, fmt.Errorf("%w: %d of %d seated", appErr.ErrTableNotFull, len(sc.seating), sc.table.Capacity)
	}

	unlock := s.lockTable(sc.table.ID)
	defer unlock()

	var game model.Game
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRunningGame(tx, sc.table.ID); err == nil {
			return appErr.ErrGameInProgress
		} else if !errors.Is(err, appErr.ErrActiveGameNotFound) {
			return err
		}

		dealerID, err := s.nextDealer(tx, sc.table.ID, sc.seating)
		if err != nil {
			return err
		}
		hands, err := s.dealer.Deal(sc.seating, dealerID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Game{}).
			Where("table_id = ? AND is_active = ?", sc.table.ID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		game = model.Game{
			TableID:        sc.table.ID,
			DealerPlayerID: dealerID,
			IsActive:       true,
		}
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		deal := model.Round{GameID: game.ID, RoundNumber: 0}
		if err := tx.Create(&deal).Error; err != nil {
			return err
		}

		plays := make([]model.Play, 0, len(hands))
		for _, h := range hands {
			plays = append(plays, toPlayModel(game.ID, DealEntry{PlayerID: h.PlayerID, RoundID: deal.ID, Hand: h.Hand}))
		}
		return tx.Create(&plays).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("game started",
		zap.Int64("tableID", sc.table.ID),
		zap.Int64("gameID", game.ID),
		zap.Int64("dealerID", game.DealerPlayerID),
	)
	s.notifier.CardsDealt(ctx, sc.table.UID)
	return &game, nil
}

// nextDealer picks a random seat for a table's first game and otherwise the
// seat after the previous game's dealer.
func (s *Service) nextDealer(tx *gorm.DB, tableID int64, seating []int64) (int64, error) {
	var previous model.Game
	err := tx.Where("table_id = ?", tableID).Order("id DESC").First(&previous).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.dealer.PickDealer(seating)
	}
	if err != nil {
		return 0, err
	}
	if next, ok := cards.NextInRotation(seating, previous.DealerPlayerID); ok {
		return next, nil
	}
	return s.dealer.PickDealer(seating)
}

// PlayCard validates and appends one play, resolving the trick and the game
// when the play completes them.
func (s *Service) PlayCard(ctx context.Context, playerID int64, token string) (*TurnSummary, error) {
	sc, err := s.seatOf(ctx, playerID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockTable(sc.table.ID)
	defer unlock()

	var (
		summary   TurnSummary
		roundOver bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game, err := lockRunningGame(tx, sc.table.ID)
		if err != nil {
			return err
		}
		ledger, err := loadLedger(tx, game.ID)
		if err != nil {
			return err
		}

		declared, err := countScores(tx, game.ID)
		if err != nil {
			return err
		}
		if int(declared) < len(sc.seating) {
			return fmt.Errorf("%w: %d of %d declared", appErr.ErrScoreDeclarationIncomplete, declared, len(sc.seating))
		}

		winners := ledger.Winners()
		st, err := DetermineState(ledger.Entries, sc.seating, winners, playerID)
		if err != nil {
			return err
		}
		if st.GameOver {
			return appErr.ErrActiveGameNotFound
		}
		if st.NextPlayerID != playerID {
			return appErr.ErrOutOfTurnPlay
		}

		card, err := cards.Parse(token)
		if err != nil {
			return err
		}
		remaining, ok := st.RequesterHand.Remove(card)
		if !ok {
			return fmt.Errorf("%w: %s", appErr.ErrNotYourCard, card)
		}

		current, err := ledger.round(st.Last.Round())
		if err != nil {
			return err
		}
		if st.RoundComplete {
			next := model.Round{GameID: game.ID, RoundNumber: current.RoundNumber + 1}
			if err := tx.Create(&next).Error; err != nil {
				return err
			}
			ledger.Rounds = append(ledger.Rounds, next)
			current = &ledger.Rounds[len(ledger.Rounds)-1]
		}

		entry := PlayEntry{PlayerID: playerID, RoundID: current.ID, Hand: remaining, Card: card}
		play := toPlayModel(game.ID, entry)
		if err := tx.Create(&play).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return appErr.ErrOutOfTurnPlay
			}
			return err
		}
		ledger.Entries = append(ledger.Entries, entry)

		roundOver = !st.RoundComplete && st.TurnsRemainingInRound == 1
		if roundOver {
			winner, err := resolveRound(tx, ledger, current)
			if err != nil {
				return err
			}
			winners[current.ID] = winner
		}
		if st.TurnsRemainingInGame == 1 {
			if err := finalizeGame(tx, game, sc.players); err != nil {
				return err
			}
		}

		after, err := DetermineState(ledger.Entries, sc.seating, winners, playerID)
		if err != nil {
			return err
		}
		summary = TurnSummary{
			PlayerID:     playerID,
			PlayerName:   sc.player.Name,
			PlayedCard:   card.String(),
			RoundIsOver:  roundOver,
			GameIsOver:   after.GameOver,
			NextPlayerID: after.NextPlayerID,
		}
		return nil
	})
	if err != nil {
		if appErr.KindOf(err) == appErr.KindIntegrity {
			logger.Log.Error("ledger integrity fault",
				zap.Int64("tableID", sc.table.ID),
				zap.Int64("playerID", playerID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.notifier.CardPlayed(ctx, sc.table.UID, summary)
	if roundOver {
		s.notifier.ScoresUpdated(ctx, sc.table.UID)
	}
	return &summary, nil
}

// GetLatestTurnInfo projects the current state of the caller's active game.
func (s *Service) GetLatestTurnInfo(ctx context.Context, playerID int64) (*TurnSummary, error) {
	sc, _, st, err := s.snapshot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	summary := &TurnSummary{
		PlayerID:     st.Last.Player(),
		PlayerName:   nameOf(sc.players, st.Last.Player()),
		RoundIsOver:  st.RoundComplete,
		GameIsOver:   st.GameOver,
		NextPlayerID: st.NextPlayerID,
	}
	if pe, ok := st.Last.(PlayEntry); ok {
		summary.PlayedCard = pe.Card.String()
	}
	return summary, nil
}

// GetHand returns the caller's current hand in its wire form.
func (s *Service) GetHand(ctx context.Context, playerID int64) (string, error) {
	_, _, st, err := s.snapshot(ctx, playerID)
	if err != nil {
		return "", err
	}
	return st.RequesterHand.String(), nil
}

// HasActiveGame reports whether the caller's table has a game being played.
func (s *Service) HasActiveGame(ctx context.Context, playerID int64) (bool, error) {
	player, err := s.seats.PlayerByID(ctx, playerID)
	if err != nil {
		return false, err
	}
	var n int64
	err = s.db.WithContext(ctx).Model(&model.Game{}).
		Where("table_id = ? AND is_active = ? AND is_finished = ?", player.TableID, true, false).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HandCounts returns how many cards every seated player holds.
func (s *Service) HandCounts(ctx context.Context, playerID int64) (map[int64]int, error) {
	sc, ledger, _, err := s.snapshot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return HandCounts(ledger.Entries, sc.seating), nil
}

// PlayedCards lists the cards of the most recent trick round in play order.
// It is empty until the first card of the game is played.
func (s *Service) PlayedCards(ctx context.Context, playerID int64) ([]PlayedCard, error) {
	_, ledger, st, err := s.snapshot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]PlayedCard, 0)
	if _, ok := st.Last.(DealEntry); ok {
		return out, nil
	}
	for _, tp := range ledger.TrickPlays(st.Last.Round()) {
		out = append(out, PlayedCard{PlayerID: tp.PlayerID, Card: tp.Card.String()})
	}
	return out, nil
}

// snapshot reads the caller's active game without taking the table lock.
func (s *Service) snapshot(ctx context.Context, playerID int64) (*seatContext, *Ledger, *State, error) {
	sc, err := s.seatOf(ctx, playerID)
	if err != nil {
		return nil, nil, nil, err
	}
	var (
		ledger *Ledger
		st     *State
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game, err := activeGame(tx, sc.table.ID)
		if err != nil {
			return err
		}
		if ledger, err = loadLedger(tx, game.ID); err != nil {
			return err
		}
		st, err = DetermineState(ledger.Entries, sc.seating, ledger.Winners(), playerID)
		return err
	})
	if err != nil {
		if appErr.KindOf(err) == appErr.KindIntegrity {
			logger.Log.Error("ledger integrity fault", zap.Int64("tableID", sc.table.ID), zap.Error(err))
		}
		return nil, nil, nil, err
	}
	return sc, ledger, st, nil
}
