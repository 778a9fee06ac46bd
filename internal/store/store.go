// Package store persists final scores to Postgres. Everything here is
// best-effort: the game keeps running whether or not the database is up, and
// connection-class failures trigger a background redial instead of surfacing
// to players.
package store

import (
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/binaryblitz/binaryblitz-backend/internal/engine"
)

const (
	redialAttempts = 5
	redialInterval = 5 * time.Second
)

// PlayerScore is the upsert target: one row per display name, overwritten on
// conflict.
type PlayerScore struct {
	Name      string `gorm:"primaryKey"`
	ScoreR1   float64
	ScoreR2   float64
	UpdatedAt time.Time
}

type Store struct {
	dsn string
	log *zap.Logger

	mu        sync.Mutex
	db        *gorm.DB // nil until the first successful dial
	redialing bool
}

// New returns immediately and dials in the background so startup never
// blocks on the database.
func New(dsn string, logger *zap.Logger) *Store {
	s := &Store{dsn: dsn, log: logger}
	go s.redial()
	return s
}

// SaveScores upserts the roster's scores by name. Errors are logged and
// swallowed; transient ones kick off a reconnect attempt.
func (s *Store) SaveScores(players []engine.Player) {
	db := s.conn()
	if db == nil {
		s.log.Warn("score save skipped, database not connected")
		go s.redial()
		return
	}

	rows := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		rows = append(rows, PlayerScore{
			Name:      p.Name,
			ScoreR1:   p.ScoreR1,
			ScoreR2:   p.ScoreR2,
			UpdatedAt: time.Now(),
		})
	}
	if len(rows) == 0 {
		return
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"score_r1", "score_r2", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		s.log.Error("score save failed", zap.Error(err))
		if IsTransient(err) {
			go s.redial()
		}
		return
	}
	s.log.Info("scores saved", zap.Int("players", len(rows)))
}

func (s *Store) conn() *gorm.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// redial establishes (or re-establishes) the connection with a bounded retry
// loop. Only one redial runs at a time.
func (s *Store) redial() {
	s.mu.Lock()
	if s.redialing {
		s.mu.Unlock()
		return
	}
	s.redialing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.redialing = false
		s.mu.Unlock()
	}()

	for attempt := 1; attempt <= redialAttempts; attempt++ {
		db, err := gorm.Open(postgres.Open(s.dsn), &gorm.Config{})
		if err == nil {
			if err = db.AutoMigrate(&PlayerScore{}); err != nil {
				s.log.Error("score table migration failed", zap.Error(err))
				return
			}
			s.mu.Lock()
			s.db = db
			s.mu.Unlock()
			s.log.Info("database connected", zap.Int("attempt", attempt))
			return
		}
		s.log.Error("database dial failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(redialInterval)
	}
	s.log.Warn("giving up on database until next save attempt")
}

// IsTransient reports whether an error looks like a lost/refused/timed-out
// connection rather than a data problem.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"timed out",
		"the database system is starting up",
		"unexpected eof",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
