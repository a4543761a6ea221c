package pg

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/reaxo-dev/reaxo/internal/config"
	"github.com/reaxo-dev/reaxo/internal/logger"

	_ "github.com/lib/pq"
)

// Storage holds the forum-aside data that the upstream API does not
// model: forums, memberships and the moderation queue.
type Storage struct {
	db *sql.DB
}

func New(cfg config.Pg) (*Storage, error) {
	logger.Log.Info("connecting to db")
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.InitPath != "" {
		logger.Log.Info("applying schema", "path", cfg.InitPath)
		if err := Init(db, cfg.InitPath); err != nil {
			return nil, err
		}
	}

	return &Storage{db}, nil
}

func Connect(cfg config.Pg) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Init executes the schema file. The schema only uses IF NOT EXISTS
// statements, so re-running it is safe.
func Init(db *sql.DB, initPath string) error {
	query, err := os.ReadFile(initPath)
	if err != nil {
		return err
	}

	_, err = db.Exec(string(query))
	return err
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}
