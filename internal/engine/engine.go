package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lairkeep/internal/config"
	"lairkeep/internal/events"
	"lairkeep/internal/repo"
)

// SchemeStatuses is the closed set of lifecycle states a scheme can hold.
var SchemeStatuses = []string{"Planning", "Active", "Completed", "Failed", "On Hold"}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time

	// cfg is guarded by mu: ReplaceConfig swaps it while requests read it.
	cfg *config.Config
	mu  *sync.RWMutex
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Now:    time.Now,
		cfg:    cfg,
		mu:     &sync.RWMutex{},
	}
}

// Tunables returns a snapshot of the effective rule tunables.
func (e Engine) Tunables() config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.cfg
}

// ReplaceConfig swaps the effective tunables for all holders of this engine.
func (e Engine) ReplaceConfig(c config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	*e.cfg = c
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ValidSpecialty reports whether s is one of the configured specialties.
// Comparison is exact; a blank string is never valid.
func (e Engine) ValidSpecialty(s string) bool {
	if s == "" {
		return false
	}
	for _, v := range e.Tunables().Specialties {
		if v == s {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is one of the configured equipment categories.
func (e Engine) ValidCategory(c string) bool {
	if c == "" {
		return false
	}
	for _, v := range e.Tunables().Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidSkillLevel reports whether n is an allowed skill or rating value.
func ValidSkillLevel(n int) bool {
	return n >= 1 && n <= 10
}

// ValidStatus reports whether s is a known scheme status.
func ValidStatus(s string) bool {
	for _, v := range SchemeStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func validateRFC3339(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, err := time.Parse(time.RFC3339, v); err != nil {
		return fmt.Errorf("%s must be RFC3339: %w", field, err)
	}
	return nil
}

func (e Engine) requireConfig() error {
	if e.cfg == nil {
		return errors.New("config not loaded")
	}
	return nil
}

// requireActor rejects mutations with no attributable actor before any
// write happens; every audit event row carries the actor id.
func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return errors.New("actor id is required")
	}
	return nil
}
