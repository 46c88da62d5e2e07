package table

import (
	"context"
	"errors"
	"fmt"

	"callbreak-service/internal/cards"
	"callbreak-service/internal/model"
	pkgAuth "callbreak-service/pkg/auth"
	appErr "callbreak-service/pkg/errors"
	"callbreak-service/pkg/logger"
	"callbreak-service/pkg/utils/random"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const joinCodeAttempts = 5

// Service is the seating directory: tables, their players and the admin seat.
// Seating order is ascending player id everywhere.
type Service struct {
	db          *gorm.DB
	maxCapacity int
}

func NewService(db *gorm.DB, maxCapacity int) *Service {
	return &Service{db: db, maxCapacity: maxCapacity}
}

// Seat is returned when a player sits down. Token authenticates later calls.
type Seat struct {
	Table  model.Table
	Player model.Player
	Token  string
}

func (s *Service) CreateTable(ctx context.Context, capacity int, adminName string) (*Seat, error) {
	if _, err := cards.DeckSize(capacity); err != nil {
		return nil, err
	}
	if s.maxCapacity > 0 && capacity > s.maxCapacity {
		return nil, fmt.Errorf("%w: table capacity is capped at %d", appErr.ErrUnsupportedPlayerCount, s.maxCapacity)
	}

	var seat Seat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := createTableWithCode(tx, capacity)
		if err != nil {
			return err
		}
		player := model.Player{
			UID:     uuid.NewString(),
			TableID: table.ID,
			Name:    adminName,
		}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		if err := tx.Model(table).Update("admin_player_id", player.ID).Error; err != nil {
			return err
		}
		table.AdminPlayerID = &player.ID
		seat.Table = *table
		seat.Player = player
		return nil
	})
	if err != nil {
		return nil, err
	}

	if seat.Token, err = pkgAuth.GeneratePlayerToken(seat.Player.ID, seat.Table.ID); err != nil {
		return nil, err
	}
	logger.Log.Info("table created",
		zap.Int64("tableID", seat.Table.ID),
		zap.Int("capacity", capacity),
		zap.Int64("adminPlayerID", seat.Player.ID),
	)
	return &seat, nil
}

// createTableWithCode retries on the rare join code collision.
func createTableWithCode(tx *gorm.DB, capacity int) (*model.Table, error) {
	var lastErr error
	for i := 0; i < joinCodeAttempts; i++ {
		table := model.Table{
			UID:      uuid.NewString(),
			JoinCode: random.JoinCode(),
			Capacity: capacity,
			Active:   true,
		}
		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&table).Error
		})
		if err == nil {
			return &table, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("allocate join code: %w", lastErr)
}

func (s *Service) JoinTable(ctx context.Context, joinCode, name string) (*Seat, error) {
	var seat Seat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table model.Table
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("join_code = ?", joinCode).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErr.ErrTableNotFound
			}
			return err
		}
		if !table.Active {
			return appErr.ErrTableInactive
		}

		var seated int64
		if err := tx.Model(&model.Player{}).Where("table_id = ?", table.ID).Count(&seated).Error; err != nil {
			return err
		}
		if int(seated) >= table.Capacity {
			return appErr.ErrTableFull
		}

		player := model.Player{
			UID:     uuid.NewString(),
			TableID: table.ID,
			Name:    name,
		}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		seat.Table = table
		seat.Player = player
		return nil
	})
	if err != nil {
		return nil, err
	}

	if seat.Token, err = pkgAuth.GeneratePlayerToken(seat.Player.ID, seat.Table.ID); err != nil {
		return nil, err
	}
	return &seat, nil
}

func (s *Service) TableByID(ctx context.Context, id int64) (*model.Table, error) {
	var table model.Table
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrTableNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (s *Service) TableByUID(ctx context.Context, uid string) (*model.Table, error) {
	var table model.Table
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrTableNotFound
		}
		return nil, err
	}
	return &table, nil
}

// Players lists a table's seated players in seating order.
func (s *Service) Players(ctx context.Context, tableID int64) ([]model.Player, error) {
	var players []model.Player
	if err := s.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("id ASC").
		Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Service) PlayerByID(ctx context.Context, id int64) (*model.Player, error) {
	var player model.Player
	if err := s.db.WithContext(ctx).First(&player, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrPlayerNotFound
		}
		return nil, err
	}
	return &player, nil
}

func (s *Service) IsAdmin(ctx context.Context, playerID int64) (bool, error) {
	player, err := s.PlayerByID(ctx, playerID)
	if err != nil {
		return false, err
	}
	table, err := s.TableByID(ctx, player.TableID)
	if err != nil {
		return false, err
	}
	return table.AdminPlayerID != nil && *table.AdminPlayerID == playerID, nil
}

// CheckMembership reports ErrUnauthorized when the player is not seated at
// the table identified by uid.
func (s *Service) CheckMembership(ctx context.Context, playerID int64, uid string) (*model.Table, error) {
	table, err := s.TableByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	player, err := s.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.TableID != table.ID {
		return nil, appErr.ErrUnauthorized
	}
	return table, nil
}

// Close stops further joins. Games already running are unaffected.
func (s *Service) Close(ctx context.Context, adminID int64) error {
	ok, err := s.IsAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !ok {
		return appErr.ErrNotTableAdmin
	}
	player, err := s.PlayerByID(ctx, adminID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("id = ?", player.TableID).
		Update("active", false).Error
}
