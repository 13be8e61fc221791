package db

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/tarjetas/internal/cardsvc/config"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OpenStore connects the backend selected by c.StoreDriver. The returned
// close function releases its connections.
func OpenStore(c config.Config) (store.Gateway, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch c.StoreDriver {
	case config.StorePostgres:
		pool, err := ConnectPostgres(c.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s := store.NewCardStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Printf("pg connection established successfully")
		return s, pool.Close, nil

	case config.StoreMongo:
		database, err := ConnectMongo(c.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewMongoStore(database)
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Warnf("unable to create card indexes: %v", err)
		}
		log.Infof("mongo connection established, database %s", database.Name())
		closeFn := func() {
			if err := database.Client().Disconnect(context.Background()); err != nil {
				log.Errorf("mongo disconnect: %v", err)
			}
		}
		return s, closeFn, nil

	case config.StoreSQLite:
		gdb, err := OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite %s: %w", c.SQLitePath, err)
		}
		s, closeFn, err := gormStore(gdb)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("sqlite database %s opened", c.SQLitePath)
		return s, closeFn, nil

	case config.StoreMemory:
		log.Warn("using in-memory card store, data is lost on exit")
		return store.NewMemoryStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
}

// gormStore migrates gdb and wraps it, closing it when migration fails.
func gormStore(gdb *gorm.DB) (*store.GormStore, func(), error) {
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}
	s, err := store.NewGormStore(gdb)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}
