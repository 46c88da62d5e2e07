package service

import (
	"callbreak-service/internal/cards"
	"callbreak-service/internal/config"
	"callbreak-service/internal/service/game"
	"callbreak-service/internal/service/notify"
	"callbreak-service/internal/service/table"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Table  *table.Service
	Game   *game.Service
	Events *notify.Redis
}

func NewContainer(db *gorm.DB, rdb *redis.Client, conf config.GameConfig) *Container {
	dealer := cards.NewDealer(nil)
	if conf.Seed != 0 {
		dealer = cards.NewSeededDealer(conf.Seed)
	}

	tables := table.NewService(db, conf.MaxTableCapacity)
	events := notify.NewRedis(rdb)
	return &Container{
		Table:  tables,
		Game:   game.NewService(db, tables, events, dealer),
		Events: events,
	}
}
