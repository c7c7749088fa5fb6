package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/vincent-heng/discord-pokebot/config"
)

type DB struct {
	*gorm.DB
}

// New opens the configured database and migrates every table
func New(conf config.Database) (*DB, error) {
	dialector, err := dialectorFor(conf)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(),
	})
	if err != nil {
		return nil, err
	}

	if conf.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	d := &DB{DB: db}
	if err := d.Migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func dialectorFor(conf config.Database) (gorm.Dialector, error) {
	switch conf.Driver {
	case "postgres":
		dbinfo := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			conf.Host, conf.User, conf.Password, conf.Name)
		return postgres.Open(dbinfo), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(conf.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db path: %w", err)
		}
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
			filepath.Clean(conf.Path))
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", conf.Driver)
	}
}

func (db *DB) Migrate() error {
	for _, table := range []interface{}{
		&Creature{}, &Party{}, &GuildSettings{}, &TrainerSettings{},
	} {
		if e := db.AutoMigrate(table); e != nil {
			return fmt.Errorf("automigrate %T failed: %w", table, e)
		}
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Begin() *DB {
	return &DB{
		DB: db.DB.Begin(),
	}
}

// transaction runs fn inside a transaction committed when fn returns nil
func (db *DB) transaction(fn func(tx *DB) error) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DB{DB: tx})
	})
}
