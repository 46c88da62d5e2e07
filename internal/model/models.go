package model

import (
	"time"

	"gorm.io/datatypes"
)

// Seating

type Table struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	UID           string `gorm:"size:36;unique;not null"`
	JoinCode      string `gorm:"size:16;unique;not null"`
	Capacity      int    `gorm:"not null"`
	AdminPlayerID *int64
	Active        bool   `gorm:"default:true;not null"`
	CreatedAt     time.Time
}

type Player struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UID       string `gorm:"size:36;unique;not null"`
	TableID   int64  `gorm:"index;not null"`
	Name      string `gorm:"size:50"`
	CreatedAt time.Time
}

// Game ledger

type Game struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	TableID        int64 `gorm:"index;not null"`
	DealerPlayerID int64 `gorm:"not null"`
	IsActive       bool  `gorm:"not null"`
	IsFinished     bool  `gorm:"not null"`
	ResultJSON     datatypes.JSON
	CreatedAt      time.Time
	FinishedAt     *time.Time
}

// Round 0 of every game is the deal round and never has a winner.
type Round struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	GameID         int64 `gorm:"uniqueIndex:idx_round_game_number;not null"`
	RoundNumber    int   `gorm:"uniqueIndex:idx_round_game_number;not null"`
	WinnerPlayerID *int64
	CreatedAt      time.Time
}

// Play is one ledger entry. Hand is what the player holds after the entry;
// PlayedCard is empty for deal-round entries.
type Play struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	GameID     int64  `gorm:"index;not null"`
	RoundID    int64  `gorm:"uniqueIndex:idx_play_round_player;not null"`
	PlayerID   int64  `gorm:"uniqueIndex:idx_play_round_player;not null"`
	Hand       string `gorm:"size:256;not null"`
	PlayedCard string `gorm:"size:3"`
	CreatedAt  time.Time
}

type Score struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	GameID        int64 `gorm:"uniqueIndex:idx_score_game_player;not null"`
	PlayerID      int64 `gorm:"uniqueIndex:idx_score_game_player;not null"`
	DeclaredScore int   `gorm:"not null"`
	ActualScore   int   `gorm:"default:0;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Table{},
		&Player{},
		&Game{},
		&Round{},
		&Play{},
		&Score{},
	}
}
