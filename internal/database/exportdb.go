package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/friendcrawl/internal/model"
)

// ErrIDOutOfRange is returned when a user ID does not fit a SQLite INTEGER.
var ErrIDOutOfRange = errors.New("user ID exceeds SQLite integer range")

// ExportDB is an open SQLite export file.
type ExportDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ExportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	// It is off by default so that the export stays a single file.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         false,
	}
}

// Open opens or creates an export file at dbPath.
// If CreateIfNotExists is true, the parent directory and database file are created.
// If CreateIfNotExists is false and the file doesn't exist, an error is returned.
func Open(dbPath string, opts Options) (*ExportDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw keeps the driver from creating a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	edb := &ExportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := edb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return edb, nil
}

// Close closes the database connection.
func (edb *ExportDB) Close() error {
	return edb.db.Close()
}

// Path returns the path of the database file.
func (edb *ExportDB) Path() string {
	return edb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (edb *ExportDB) createTables() error {
	schema := `
	-- Users store the lookup payload of every collected user
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		is_banned INTEGER NOT NULL DEFAULT 0,
		friend_count INTEGER NOT NULL DEFAULT 0,
		user_info TEXT NOT NULL
	);

	-- Friends keep the neighbor list of each user in API order
	CREATE TABLE IF NOT EXISTS friends (
		user_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		friend_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_friends_friend ON friends(friend_id);

	-- Crawl info describes the run that produced the graph
	CREATE TABLE IF NOT EXISTS crawl_info (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		start_id INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		status TEXT NOT NULL,
		steps INTEGER NOT NULL,
		budget_used INTEGER NOT NULL,
		frontier_remaining INTEGER NOT NULL,
		budget_exhausted INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		exported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := edb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlInfo describes the run stored in an export.
type CrawlInfo struct {
	StartID           model.EntityID
	Seed              model.EntityID
	Status            string
	Steps             int
	BudgetUsed        int
	FrontierRemaining int
	BudgetExhausted   bool
	Cancelled         bool
	Elapsed           time.Duration
	ExportedAt        time.Time
}

// SaveReport replaces the content of the export with report.
// It returns the number of users stored.
func (edb *ExportDB) SaveReport(ctx context.Context, report *model.CrawlReport) (int, error) {
	return edb.save(ctx, report.Graph, &CrawlInfo{
		StartID:           report.StartID,
		Seed:              report.Seed,
		Status:            report.Status(),
		Steps:             report.Steps,
		BudgetUsed:        report.BudgetUsed,
		FrontierRemaining: report.FrontierRemaining,
		BudgetExhausted:   report.BudgetExhausted,
		Cancelled:         report.Cancelled,
		Elapsed:           report.Elapsed(),
	})
}

// SaveGraph replaces the content of the export with g and no crawl info.
func (edb *ExportDB) SaveGraph(ctx context.Context, g model.Graph) (int, error) {
	return edb.save(ctx, g, nil)
}

func (edb *ExportDB) save(ctx context.Context, g model.Graph, info *CrawlInfo) (n int, err error) {
	if err := checkIDRange(g, info); err != nil {
		return 0, err
	}

	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"friends", "users", "crawl_info"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	userStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO users (id, name, display_name, is_banned, friend_count, user_info)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare user insert: %w", err)
	}
	defer userStmt.Close()

	friendStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO friends (user_id, position, friend_id, name, display_name)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare friend insert: %w", err)
	}
	defer friendStmt.Close()

	for _, id := range g.IDs() {
		entry := g[id]

		var userInfo []byte
		userInfo, err = json.Marshal(entry.UserInfo)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize user %s: %w", id, err)
		}

		if _, err = userStmt.ExecContext(ctx,
			int64(id), //nolint:gosec // checked by checkIDRange
			entry.UserInfo.Name,
			entry.UserInfo.DisplayName,
			entry.UserInfo.IsBanned,
			entry.FriendCount(),
			string(userInfo),
		); err != nil {
			return 0, fmt.Errorf("failed to insert user %s: %w", id, err)
		}

		for pos, f := range entry.Friends {
			if _, err = friendStmt.ExecContext(ctx,
				int64(id), //nolint:gosec // checked by checkIDRange
				pos,
				int64(f.ID), //nolint:gosec // checked by checkIDRange
				f.Name,
				f.DisplayName,
			); err != nil {
				return 0, fmt.Errorf("failed to insert friend %s of %s: %w", f.ID, id, err)
			}
		}
	}

	if info != nil {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO crawl_info (id, start_id, seed, status, steps, budget_used, frontier_remaining,
			budget_exhausted, cancelled, elapsed_ms)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			int64(info.StartID), //nolint:gosec // checked by checkIDRange
			int64(info.Seed),    //nolint:gosec // checked by checkIDRange
			info.Status,
			info.Steps,
			info.BudgetUsed,
			info.FrontierRemaining,
			info.BudgetExhausted,
			info.Cancelled,
			info.Elapsed.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("failed to save crawl info: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}
	return g.Len(), nil
}

// checkIDRange rejects graphs whose IDs would wrap when stored as int64.
func checkIDRange(g model.Graph, info *CrawlInfo) error {
	check := func(id model.EntityID) error {
		if uint64(id) > math.MaxInt64 {
			return fmt.Errorf("%w: %s", ErrIDOutOfRange, id)
		}
		return nil
	}

	for id, entry := range g {
		if err := check(id); err != nil {
			return err
		}
		for _, f := range entry.Friends {
			if err := check(f.ID); err != nil {
				return err
			}
		}
	}
	if info != nil {
		if err := check(info.StartID); err != nil {
			return err
		}
		if err := check(info.Seed); err != nil {
			return err
		}
	}
	return nil
}

// LoadGraph reads the stored graph back.
func (edb *ExportDB) LoadGraph(ctx context.Context) (model.Graph, error) {
	g := model.NewGraph()

	rows, err := edb.db.QueryContext(ctx, `SELECT id, user_info FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var userInfo string
		if err := rows.Scan(&id, &userInfo); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		var entry model.Entry
		if err := json.Unmarshal([]byte(userInfo), &entry.UserInfo); err != nil {
			return nil, fmt.Errorf("failed to parse user %d: %w", id, err)
		}
		entry.Friends = []model.NeighborRef{}
		g[model.EntityID(id)] = entry //nolint:gosec // stored from EntityID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	friendRows, err := edb.db.QueryContext(ctx, `
	SELECT user_id, friend_id, name, display_name
	FROM friends
	ORDER BY user_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer friendRows.Close()

	for friendRows.Next() {
		var userID, friendID int64
		var ref model.NeighborRef
		if err := friendRows.Scan(&userID, &friendID, &ref.Name, &ref.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		ref.ID = model.EntityID(friendID) //nolint:gosec // stored from EntityID

		id := model.EntityID(userID) //nolint:gosec // stored from EntityID
		entry, ok := g[id]
		if !ok {
			return nil, fmt.Errorf("friend row references unknown user %d", userID)
		}
		entry.Friends = append(entry.Friends, ref)
		g[id] = entry
	}

	return g, friendRows.Err()
}

// CrawlInfo returns the stored run description, or nil if the export was
// written from a graph alone.
func (edb *ExportDB) CrawlInfo(ctx context.Context) (*CrawlInfo, error) {
	query := `
	SELECT start_id, seed, status, steps, budget_used, frontier_remaining,
		budget_exhausted, cancelled, elapsed_ms, exported_at
	FROM crawl_info
	WHERE id = 1
	`

	var info CrawlInfo
	var startID, seed, elapsedMS int64
	var timestamp string

	err := edb.db.QueryRowContext(ctx, query).Scan(
		&startID,
		&seed,
		&info.Status,
		&info.Steps,
		&info.BudgetUsed,
		&info.FrontierRemaining,
		&info.BudgetExhausted,
		&info.Cancelled,
		&elapsedMS,
		&timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl info: %w", err)
	}

	info.StartID = model.EntityID(startID) //nolint:gosec // stored from EntityID
	info.Seed = model.EntityID(seed)       //nolint:gosec // stored from EntityID
	info.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	info.ExportedAt = parseTimestamp(timestamp)
	return &info, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
