package database

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/symptomchecker/internal/schema"
)

// ErrClosed is returned by handle acquisition after Close.
var ErrClosed = errors.New("database: closed")

const slowQueryThreshold = 200 * time.Millisecond

type Options struct {
	Logger     zerolog.Logger
	LogQueries bool // log every statement instead of only slow ones and errors
}

// Manager is the single point of access to the on-disk database. The
// connection is opened and the schema applied on first use.
type Manager struct {
	path     string
	entities []schema.Entity
	log      zerolog.Logger
	sqlLog   logger.Interface

	mu     sync.Mutex
	db     *gorm.DB
	ready  bool
	closed bool
}

// NewManager validates the entity definitions without touching the disk.
func NewManager(path string, entities []schema.Entity, opts Options) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("database: path is required")
	}
	tables := make(map[string]bool, len(entities))
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if tables[e.Table] {
			return nil, fmt.Errorf("database: table %q declared twice", e.Table)
		}
		tables[e.Table] = true
	}

	level := logger.Warn
	if opts.LogQueries {
		level = logger.Info
	}
	sqlLog := opts.Logger.With().Str("component", "gorm").Logger()

	return &Manager{
		path:     path,
		entities: entities,
		log:      opts.Logger.With().Str("component", "database").Logger(),
		sqlLog: logger.New(&sqlLog, logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}, nil
}

// Readable returns a handle intended for queries.
func (m *Manager) Readable() (*gorm.DB, error) {
	return m.acquire()
}

// Writable returns a handle intended for mutations. It currently resolves to
// the same connection as Readable.
func (m *Manager) Writable() (*gorm.DB, error) {
	return m.acquire()
}

// acquire opens the database and creates missing tables exactly once. A
// failed attempt leaves the manager uninitialised so the next call retries.
func (m *Manager) acquire() (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.ready {
		return m.db, nil
	}

	if m.db == nil {
		db, err := gorm.Open(sqlite.Open(dsn(m.path)), &gorm.Config{Logger: m.sqlLog})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		m.db = db
	}

	if err := m.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	m.ready = true

	m.log.Info().Str("path", m.path).Int("tables", len(m.entities)).Msg("Database initialized")
	return m.db, nil
}

func (m *Manager) createTables() error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range m.entities {
			existed := tx.Migrator().HasTable(e.Table)
			if err := tx.Exec(e.CreateTableSQL()).Error; err != nil {
				return fmt.Errorf("create table %s: %w", e.Table, err)
			}
			if !existed {
				m.log.Info().Str("table", e.Table).Msg("Created table")
			}
		}
		return nil
	})
}

// Ping verifies the connection, opening it if needed.
func (m *Manager) Ping() error {
	db, err := m.acquire()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	// WAL lets open cursors keep reading while other callers write.
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}
