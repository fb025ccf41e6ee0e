// Package journal persists differentiation and simplification steps in SQLite.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/njchilds90/gosymdiff"
)

// SchemaVersion is the journal layout written by this package.
const SchemaVersion = "1"

// Journal is a SQLite-backed step store.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the journal at path. ":memory:" keeps it in memory
// for the life of the Journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			created INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS steps (
			run_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			before_text TEXT NOT NULL,
			after_text TEXT NOT NULL,
			PRIMARY KEY (run_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{db: db}
	version, err := j.metadata("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if _, err := db.Exec("INSERT INTO metadata (key, value) VALUES ('schema_version', ?)", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("journal: unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return j, nil
}

func (j *Journal) metadata(key string) (string, error) {
	var value string
	err := j.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// Begin starts a new run. The run records every step it observes.
func (j *Journal) Begin(label string) (*Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	res, err := j.db.Exec("INSERT INTO runs (label, created) VALUES (?, ?)", label, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("journal: begin %q: %w", label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Run{j: j, ID: id}, nil
}

// Run is a gosymdiff.Observer writing into one journal run. The first write
// error is kept and later steps are dropped; check Err when done.
type Run struct {
	j   *Journal
	ID  int64
	seq int
	err error
}

func (r *Run) Observe(s gosymdiff.Step) {
	if r.err != nil {
		return
	}
	r.j.mu.Lock()
	defer r.j.mu.Unlock()
	_, err := r.j.db.Exec(
		"INSERT INTO steps (run_id, seq, action, before_text, after_text) VALUES (?, ?, ?, ?, ?)",
		r.ID, r.seq, s.Action.String(), s.Before.String(), s.After.String(),
	)
	if err != nil {
		r.err = fmt.Errorf("journal: run %d step %d: %w", r.ID, r.seq, err)
		return
	}
	r.seq++
}

func (r *Run) Err() error { return r.err }

// Len returns the number of steps written so far.
func (r *Run) Len() int { return r.seq }

// Record is one stored step.
type Record struct {
	RunID  int64
	Seq    int
	Action string
	Before string
	After  string
}

// Steps returns the steps of a run in order.
func (j *Journal) Steps(runID int64) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.Query("SELECT run_id, seq, action, before_text, after_text FROM steps WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Action, &rec.Before, &rec.After); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunInfo summarizes one run.
type RunInfo struct {
	ID      int64
	Label   string
	Created time.Time
	Steps   int
}

// Runs lists every run, oldest first.
func (j *Journal) Runs() ([]RunInfo, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.Query(`
		SELECT r.id, r.label, r.created, COUNT(s.seq)
		FROM runs r LEFT JOIN steps s ON s.run_id = r.id
		GROUP BY r.id ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var created int64
		if err := rows.Scan(&info.ID, &info.Label, &created, &info.Steps); err != nil {
			return nil, err
		}
		info.Created = time.Unix(0, created)
		out = append(out, info)
	}
	return out, rows.Err()
}
