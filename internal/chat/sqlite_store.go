package chat

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SessionStore backing that survives process restarts.
// Contexts are serialized as JSON rows keyed by user.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenSQLiteStore opens (or creates) the session database at path
func OpenSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to session database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS sessions (
		user_id INTEGER PRIMARY KEY,
		data TEXT NOT NULL,
		session_start DATETIME NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get loads the user's context, creating one on first access and resetting
// it if the session has expired.
func (s *SQLiteStore) Get(userID int64) (*Context, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE user_id = $1`, userID).Scan(&data)
	if err == sql.ErrNoRows {
		ctx := NewContext(userID)
		if err := s.Put(ctx); err != nil {
			return nil, err
		}
		return ctx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	ctx := &Context{}
	if err := json.Unmarshal([]byte(data), ctx); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if ctx.ContextData == nil {
		ctx.ContextData = map[string]interface{}{}
	}
	if ctx.LastEntities == nil {
		ctx.LastEntities = map[string]interface{}{}
	}

	if ctx.Expired(time.Now().UTC(), s.ttl) {
		ctx.Clear()
		ctx.SessionStart = time.Now().UTC()
		if err := s.Put(ctx); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// Put upserts the serialized context
func (s *SQLiteStore) Put(ctx *Context) error {
	data, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (user_id, data, session_start)
		VALUES ($1, $2, $3)
		ON CONFLICT(user_id) DO UPDATE SET data = $2, session_start = $3`,
		ctx.UserID, string(data), ctx.SessionStart)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear removes the user's session row
func (s *SQLiteStore) Clear(userID int64) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Sweep deletes sessions whose start is older than the ttl
func (s *SQLiteStore) Sweep(now time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE session_start < $1`, now.Add(-s.ttl)); err != nil {
		return fmt.Errorf("sweeping sessions: %w", err)
	}
	return nil
}
