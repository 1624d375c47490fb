package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/browserpair/bpsync/internal/history"
	"github.com/browserpair/bpsync/internal/profile"
)

// historySchema mirrors the columns the engine reads and writes. Extra
// tables in an existing store are left untouched because write-back
// mutates a copy of the original file.
const historySchema = `
CREATE TABLE IF NOT EXISTS urls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url LONGVARCHAR,
	title LONGVARCHAR,
	visit_count INTEGER DEFAULT 0 NOT NULL,
	typed_count INTEGER DEFAULT 0 NOT NULL,
	last_visit_time INTEGER NOT NULL,
	hidden INTEGER DEFAULT 0 NOT NULL
);

CREATE TABLE IF NOT EXISTS visits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url INTEGER NOT NULL,
	visit_time INTEGER NOT NULL,
	from_visit INTEGER,
	transition INTEGER DEFAULT 0 NOT NULL,
	segment_id INTEGER,
	visit_duration INTEGER DEFAULT 0 NOT NULL
);

CREATE INDEX IF NOT EXISTS visits_url_index ON visits(url, visit_time);
`

// LoadHistory reads a profile's history into memory. The live database
// is copied to a scratch directory first and the copy is opened, so no
// read lock is ever held against the live store. A missing store loads
// as empty. Entries that normalize to the same URL are coalesced.
func LoadHistory(ctx context.Context, p *profile.Profile) ([]*history.Entry, error) {
	live := p.HistoryPath()
	if _, err := os.Stat(live); os.IsNotExist(err) {
		return nil, nil
	}

	scratch, err := os.MkdirTemp("", "bpsync-history-")
	if err != nil {
		return nil, &ReadError{Path: live, Err: err}
	}
	defer os.RemoveAll(scratch)

	private := filepath.Join(scratch, "History")
	if err := copyFile(live, private); err != nil {
		return nil, &ReadError{Path: live, Err: err}
	}

	entries, err := readHistoryDB(ctx, private)
	if err != nil {
		return nil, &ReadError{Path: live, Err: err}
	}
	return history.Coalesce(entries), nil
}

// WriteHistory replaces the profile's history with the merged set. The
// result is built in a sibling copy of the live store and renamed over
// it, preserving any tables the engine does not manage.
func WriteHistory(ctx context.Context, p *profile.Profile, entries []*history.Entry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return &WriteError{Path: p.HistoryPath(), Err: err}
		}
	}

	live := p.HistoryPath()
	tmp := live + ".bpsync-tmp"
	if _, err := os.Stat(live); err == nil {
		if err := copyFile(live, tmp); err != nil {
			return &WriteError{Path: live, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return &WriteError{Path: live, Err: err}
	}

	if err := writeHistoryDB(ctx, tmp, entries); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: live, Err: err}
	}
	if err := replaceFile(tmp, live); err != nil {
		return &WriteError{Path: live, Err: err}
	}
	return nil
}

func openHistoryDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// Single sequential pipeline, one connection is enough.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return conn, nil
}

func readHistoryDB(ctx context.Context, path string) ([]*history.Entry, error) {
	conn, err := openHistoryDB(path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT id, url, title, visit_count, typed_count, last_visit_time, hidden FROM urls`)
	if err != nil {
		return nil, fmt.Errorf("query urls: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*history.Entry)
	var entries []*history.Entry
	for rows.Next() {
		var (
			id                               int64
			rawURL                           string
			title                            sql.NullString
			visitCount, typedCount, lastTime int64
			hidden                           int64
		)
		if err := rows.Scan(&id, &rawURL, &title, &visitCount, &typedCount, &lastTime, &hidden); err != nil {
			return nil, fmt.Errorf("scan url row: %w", err)
		}
		e := &history.Entry{
			URL:        history.NormalizeURL(rawURL),
			RawURL:     rawURL,
			Title:      title.String,
			VisitCount: visitCount,
			TypedCount: typedCount,
			Hidden:     hidden != 0,
			LastVisit:  lastTime,
			FirstVisit: lastTime,
		}
		byID[id] = e
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate urls: %w", err)
	}

	visitRows, err := conn.QueryContext(ctx,
		`SELECT url, visit_time, from_visit, transition, segment_id, visit_duration
		 FROM visits ORDER BY visit_time`)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer visitRows.Close()

	for visitRows.Next() {
		var (
			urlID, visitTime          int64
			fromVisit, segmentID      sql.NullInt64
			transition, visitDuration int64
		)
		if err := visitRows.Scan(&urlID, &visitTime, &fromVisit, &transition, &segmentID, &visitDuration); err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		e, ok := byID[urlID]
		if !ok {
			continue // orphaned visit, drop
		}
		e.Visits = append(e.Visits, history.Visit{
			Time:       visitTime,
			FromVisit:  fromVisit.Int64,
			Transition: transition,
			SegmentID:  segmentID.Int64,
			Duration:   visitDuration,
		})
		if visitTime != 0 && (e.FirstVisit == 0 || visitTime < e.FirstVisit) {
			e.FirstVisit = visitTime
		}
		if visitTime > e.LastVisit {
			e.LastVisit = visitTime
		}
	}
	if err := visitRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return entries, nil
}

func writeHistoryDB(ctx context.Context, path string, entries []*history.Entry) error {
	conn, err := openHistoryDB(path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, historySchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM visits`); err != nil {
		return fmt.Errorf("clear visits: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM urls`); err != nil {
		return fmt.Errorf("clear urls: %w", err)
	}

	insertURL, err := tx.PrepareContext(ctx,
		`INSERT INTO urls (url, title, visit_count, typed_count, last_visit_time, hidden)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare url insert: %w", err)
	}
	defer insertURL.Close()

	insertVisit, err := tx.PrepareContext(ctx,
		`INSERT INTO visits (url, visit_time, from_visit, transition, segment_id, visit_duration)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare visit insert: %w", err)
	}
	defer insertVisit.Close()

	for _, e := range entries {
		raw := e.RawURL
		if raw == "" {
			raw = e.URL
		}
		res, err := insertURL.ExecContext(ctx,
			raw, e.Title, e.VisitCount, e.TypedCount, e.LastVisit, boolToInt(e.Hidden))
		if err != nil {
			return fmt.Errorf("insert url %s: %w", e.URL, err)
		}
		urlID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("url id for %s: %w", e.URL, err)
		}
		for _, v := range e.Visits {
			if _, err := insertVisit.ExecContext(ctx,
				urlID, v.Time, v.FromVisit, v.Transition, v.SegmentID, v.Duration); err != nil {
				return fmt.Errorf("insert visit for %s: %w", e.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
