package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/chipper/analysis"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// SQLiteStore keeps one row of headline statistics per analyzed bout
type SQLiteStore struct {
	db *sql.DB
}

// StoredRecord is a row read back from the store
type StoredRecord struct {
	ID                 int64
	FileName           string
	AnalyzedAt         time.Time
	NumSyllables       int
	NumUniqueSyllables int
	NumNotes           int
	MeanStereotypy     *float64
	Record             analysis.Record
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if dbDir := filepath.Dir(dbPath); dbDir != "." && dbDir != "" {
			if err := os.MkdirAll(dbDir, 0o755); err != nil {
				return nil, fmt.Errorf("error creating database directory: %w", err)
			}
		}
	}

	// busy timeout in milliseconds; concurrent batch workers share the file
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}
	// an in-memory database lives only as long as its connection
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	createStatisticsTable := `
    CREATE TABLE IF NOT EXISTS bout_statistics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        file_name TEXT NOT NULL,
        analyzed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        num_syllables INTEGER NOT NULL DEFAULT 0,
        num_unique_syllables INTEGER NOT NULL DEFAULT 0,
        num_notes INTEGER NOT NULL DEFAULT 0,
        mean_stereotypy REAL,
        record TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_bout_statistics_file ON bout_statistics(file_name);
    `

	if _, err := db.Exec(createStatisticsTable); err != nil {
		return fmt.Errorf("error creating bout_statistics table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRecord inserts rec and returns its row id
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *analysis.Record) (int64, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("error encoding record: %w", err)
	}

	var stereotypy sql.NullFloat64
	if v := rec.Syllable.MeanStereotypy; v.Valid() {
		stereotypy = sql.NullFloat64{Float64: v.Float(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bout_statistics (file_name, analyzed_at, num_syllables, num_unique_syllables, num_notes, mean_stereotypy, record)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.FileName,
		time.Now().UTC(),
		rec.Bout.NumSyllables,
		rec.Syllable.NumUnique,
		rec.Note.NumNotes,
		stereotypy,
		string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("error inserting record for %s: %w", rec.FileName, err)
	}
	return res.LastInsertId()
}

// RecordsByFile returns every stored analysis of fileName, oldest first
func (s *SQLiteStore) RecordsByFile(ctx context.Context, fileName string) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, analyzed_at, num_syllables, num_unique_syllables, num_notes, mean_stereotypy, record
         FROM bout_statistics WHERE file_name = ? ORDER BY id`, fileName)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var (
			sr         StoredRecord
			stereotypy sql.NullFloat64
			payload    string
		)
		if err := rows.Scan(&sr.ID, &sr.FileName, &sr.AnalyzedAt, &sr.NumSyllables,
			&sr.NumUniqueSyllables, &sr.NumNotes, &stereotypy, &payload); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		if stereotypy.Valid {
			v := stereotypy.Float64
			sr.MeanStereotypy = &v
		}
		if err := json.Unmarshal([]byte(payload), &sr.Record); err != nil {
			return nil, fmt.Errorf("error decoding record %d: %w", sr.ID, err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
