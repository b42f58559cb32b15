package trace

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// RunIDGenerator produces identifiers for recorded runs. The default
// generates time-sortable UUIDv7 strings; tests substitute a fixed
// generator for deterministic output.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates RFC 4122 UUIDv7 run identifiers. Stateless and
// safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store persists relay traces in SQLite.
type Store struct {
	db  *sql.DB
	ids RunIDGenerator
	now func() time.Time
}

// Open creates or opens a trace database at the given path (":memory:"
// for tests). Applies pragmas and the schema; idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to trace database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply trace schema: %w", err)
	}

	return &Store{db: db, ids: UUIDv7Generator{}, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetRunIDGenerator substitutes the run identifier generator.
func (s *Store) SetRunIDGenerator(gen RunIDGenerator) {
	s.ids = gen
}

// BeginRun registers a run and returns its identifier.
func (s *Store) BeginRun(scenario, subject string) (string, error) {
	id := s.ids.Generate()
	_, err := s.db.Exec(
		"INSERT INTO runs (id, scenario, subject, started_at) VALUES (?, ?, ?, ?)",
		id, scenario, subject, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// WriteRelay persists one relay record for a run.
func (s *Store) WriteRelay(runID string, rec RelayRecord) error {
	entered, err := jsonList(rec.Entered)
	if err != nil {
		return err
	}
	exited, err := jsonList(rec.Exited)
	if err != nil {
		return err
	}
	configuration, err := jsonList(rec.Configuration)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO relays (run_id, seq, synthetic, entered, exited, consumed, processed, configuration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Seq, rec.Synthetic, entered, exited, rec.Consumed, rec.Processed, configuration,
	)
	if err != nil {
		return fmt.Errorf("failed to insert relay %d of run %s: %w", rec.Seq, runID, err)
	}
	return nil
}

// ReadRun returns the relay records of a run in sequence order.
func (s *Store) ReadRun(runID string) ([]RelayRecord, error) {
	rows, err := s.db.Query(
		`SELECT seq, synthetic, entered, exited, consumed, processed, configuration
		 FROM relays WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query relays: %w", err)
	}
	defer rows.Close()

	var records []RelayRecord
	for rows.Next() {
		var rec RelayRecord
		var entered, exited, configuration string
		if err := rows.Scan(&rec.Seq, &rec.Synthetic, &entered, &exited, &rec.Consumed, &rec.Processed, &configuration); err != nil {
			return nil, fmt.Errorf("failed to scan relay: %w", err)
		}
		if err := json.Unmarshal([]byte(entered), &rec.Entered); err != nil {
			return nil, fmt.Errorf("corrupt entered list: %w", err)
		}
		if err := json.Unmarshal([]byte(exited), &rec.Exited); err != nil {
			return nil, fmt.Errorf("corrupt exited list: %w", err)
		}
		if err := json.Unmarshal([]byte(configuration), &rec.Configuration); err != nil {
			return nil, fmt.Errorf("corrupt configuration list: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RunSummary describes one recorded run.
type RunSummary struct {
	ID        string
	Scenario  string
	Subject   string
	StartedAt string
}

// ListRuns returns every recorded run, oldest first. UUIDv7 identifiers
// sort by creation time.
func (s *Store) ListRuns() ([]RunSummary, error) {
	rows, err := s.db.Query("SELECT id, scenario, subject, started_at FROM runs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Subject, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// jsonList serializes a string list; nil serializes as the empty list so
// reads round-trip without null handling.
func jsonList(in []string) (string, error) {
	if in == nil {
		in = []string{}
	}
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(data), nil
}
