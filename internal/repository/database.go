package repository

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file source
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewPostgresDB establishes a new connection to the PostgreSQL database.
func NewPostgresDB(dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to the database!")
	return db, nil
}

// MigrateDB runs database migrations on the PostgreSQL path.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		logger.Fatal("Couldn't get database instance for running migrations", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "interaction_assess", driver)
	if err != nil {
		logger.Fatal("Couldn't create migrate instance", zap.Error(err))
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Couldn't run database migration", zap.Error(err))
	}

	logger.Info("Database migration was run successfully")
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS slices (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	context TEXT,
	focus_turns TEXT,
	hybrid_predictions TEXT
);

CREATE TABLE IF NOT EXISTS assignments (
	participant_id TEXT NOT NULL,
	slice_id TEXT NOT NULL,
	assigned_at DATETIME NOT NULL,
	PRIMARY KEY (participant_id, slice_id)
);

CREATE INDEX IF NOT EXISTS idx_assignments_slice ON assignments(slice_id);

CREATE TABLE IF NOT EXISTS annotations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant_id TEXT NOT NULL,
	slice_id TEXT NOT NULL,
	interaction_types TEXT NOT NULL,
	curiosity_types TEXT,
	routing_validation TEXT,
	annotation_time_seconds INTEGER NOT NULL DEFAULT 0,
	submitted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annotations_participant ON annotations(participant_id);
`

// NewSQLiteDB opens (or creates) the embedded SQLite database and applies
// the schema.
func NewSQLiteDB(path string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, err
	}

	logger.Info("SQLite database initialized", zap.String("path", path))
	return db, nil
}
