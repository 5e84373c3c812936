//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/himanishpuri/NoteVoyager/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "notevoyager.sqlite3"
const errDBClientNil = "db client is nil"

var ErrSessionNotFound = errors.New("session not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Session is one finished game.
type Session struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	Player          string `gorm:"index:idx_player"`
	StartedAt       time.Time
	DurationMs      float64
	Score           int `gorm:"index:idx_score"`
	Misses          int
	LevelsCompleted int
	LivesLeft       int
	Victory         bool
	Abandoned       bool
	Hits            []Hit `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
}

// Hit is one scored note inside a session.
type Hit struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionID  string `gorm:"type:varchar(36);index:idx_session"`
	Level      string
	Target     string
	Position   int
	DurationMs float64
	Points     int
	AtMs       float64
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("NOTEVOYAGER_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := utils.MakeParentDir(dbPath); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Session{}, &Hit{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveSession inserts s with its hits and returns the session ID, minting a
// UUID when s has none.
func (c *DBClient) SaveSession(s *Session) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	for i := range s.Hits {
		s.Hits[i].SessionID = s.ID
	}
	if err := c.DB.Create(s).Error; err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return s.ID, nil
}

func (c *DBClient) GetSession(id string) (*Session, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var s Session
	err := c.DB.
		Preload("Hits", func(tx *gorm.DB) *gorm.DB { return tx.Order("at_ms ASC, id ASC") }).
		Where("id = ?", id).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &s, nil
}

// ListSessions returns the newest sessions first, without hits. A
// non-positive limit returns all of them.
func (c *DBClient) ListSessions(limit int) ([]Session, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Session
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return rows, nil
}

// HighScores returns the best sessions, ties broken by who got there first.
func (c *DBClient) HighScores(limit int) ([]Session, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Where("abandoned = ?", false).Order("score DESC").Order("started_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Session
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying high scores: %w", err)
	}
	return rows, nil
}

func (c *DBClient) DeleteSession(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&Hit{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil
	})
}

// CountSessions reports how many sessions are stored.
func (c *DBClient) CountSessions() (int, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Session{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// CountHits reports how many hits are stored for a session.
func (c *DBClient) CountHits(sessionID string) (int, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Hit{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
