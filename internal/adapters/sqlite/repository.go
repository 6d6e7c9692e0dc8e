package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradeboard/internal/domain"
	"tradeboard/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.TradeRepository and ports.UserRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradeboard.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables and indexes if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		broker TEXT DEFAULT NULL,
		symbol TEXT NOT NULL,
		asset_type TEXT DEFAULT NULL,
		side TEXT NOT NULL,
		quantity REAL NOT NULL DEFAULT 0,
		multiplier REAL NOT NULL DEFAULT 1,
		entry_price REAL NOT NULL DEFAULT 0,
		exit_price REAL DEFAULT NULL,
		fees REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		pnl REAL DEFAULT NULL,
		return_pct REAL DEFAULT NULL,
		meta TEXT DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT DEFAULT NULL,
		avatar_url TEXT DEFAULT NULL,
		handle TEXT DEFAULT NULL
	);

	-- Indexes matching the leaderboard and lifecycle access paths
	CREATE INDEX IF NOT EXISTS idx_trades_user_id ON trades (user_id);
	CREATE INDEX IF NOT EXISTS idx_trades_status_closed_at ON trades (status, closed_at);
	CREATE INDEX IF NOT EXISTS idx_trades_opened_at ON trades (opened_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- TradeRepository Implementation ---

// Create saves a new trade and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (user_id, broker, symbol, asset_type, side, quantity, multiplier,
	                    entry_price, fees, status, opened_at, meta)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	meta, err := marshalMeta(trade.Meta)
	if err != nil {
		return 0, fmt.Errorf("failed to encode meta for trade on %s: %w", trade.Symbol, err)
	}

	// Timestamps are stored as TEXT and range-compared lexicographically, so
	// they must always be bound in UTC.
	result, err := r.db.ExecContext(ctx, query,
		trade.UserID, nullString(trade.Broker), trade.Symbol, nullString(trade.AssetType),
		trade.Side, trade.Quantity, trade.Multiplier, trade.EntryPrice, trade.Fees,
		trade.Status, trade.OpenedAt.UTC(), meta)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for user %s: %w", trade.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade (user %s): %w", trade.UserID, err)
	}
	trade.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "userID": trade.UserID, "symbol": trade.Symbol})
	return id, nil
}

// FindByID retrieves a trade by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	row := r.db.QueryRowContext(ctx, selectTrade+` WHERE id = ?`, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %d: %w", id, err)
	}
	return trade, nil
}

// CloseTrade marks a trade as closed in a single statement. The fee column is
// incremented, not overwritten, so the stored total stays open fee + close fee.
// Re-closing an existing closed trade simply overwrites the exit fields.
func (r *Repository) CloseTrade(ctx context.Context, id int64, upd ports.TradeClose) error {
	const query = `
	UPDATE trades
	SET exit_price = ?, closed_at = ?, status = ?, pnl = ?, return_pct = ?,
	    fees = fees + ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		upd.ExitPrice, upd.ClosedAt.UTC(), domain.StatusClosed, upd.PnL, upd.ReturnPct,
		upd.CloseFees, id)
	if err != nil {
		return fmt.Errorf("failed to close trade ID %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for close of trade ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for close: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade closed", map[string]interface{}{"tradeID": id, "pnl": upd.PnL})
	return nil
}

// FindClosed retrieves closed trades, optionally bounded to closed_at within
// [start, end] inclusive, matching the leaderboard window semantics.
func (r *Repository) FindClosed(ctx context.Context, start, end time.Time, bounded bool) ([]*domain.Trade, error) {
	query := selectTrade + ` WHERE status = ?`
	args := []interface{}{domain.StatusClosed}
	if bounded {
		query += ` AND closed_at >= ? AND closed_at <= ?`
		args = append(args, start.UTC(), end.UTC())
	}
	query += ` ORDER BY closed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindClosed: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closed trade rows: %w", err)
	}
	return trades, nil
}

// --- UserRepository Implementation ---

// FindByIDs retrieves user profiles keyed by ID. Missing IDs are absent from
// the result; the leaderboard join treats that as empty profile fields.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	users := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	query := fmt.Sprintf(
		`SELECT id, COALESCE(display_name, ''), COALESCE(avatar_url, ''), COALESCE(handle, '')
		 FROM users WHERE id IN (%s)`, placeholders[:len(placeholders)-1])

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.AvatarURL, &u.Handle); err != nil {
			return nil, fmt.Errorf("failed to scan user during FindByIDs: %w", err)
		}
		users[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Upsert inserts or replaces a user profile.
func (r *Repository) Upsert(ctx context.Context, user domain.User) error {
	const query = `
	INSERT INTO users (id, display_name, avatar_url, handle)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		display_name = excluded.display_name,
		avatar_url = excluded.avatar_url,
		handle = excluded.handle`

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.DisplayName, user.AvatarURL, user.Handle); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.ID, err)
	}
	r.logger.Debug(ctx, "User profile upserted", map[string]interface{}{"userID": user.ID})
	return nil
}

// --- Helper Scan Functions ---

const selectTrade = `
	SELECT id, user_id, COALESCE(broker, ''), symbol, COALESCE(asset_type, ''), side,
	       quantity, multiplier, entry_price, COALESCE(exit_price, 0), fees, status,
	       opened_at, closed_at, COALESCE(pnl, 0), COALESCE(return_pct, 0), meta
	FROM trades`

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var closedAt sql.NullTime
	var meta sql.NullString
	var side, status string
	err := s.Scan(
		&t.ID, &t.UserID, &t.Broker, &t.Symbol, &t.AssetType, &side,
		&t.Quantity, &t.Multiplier, &t.EntryPrice, &t.ExitPrice, &t.Fees, &status,
		&t.OpenedAt, &closedAt, &t.PnL, &t.ReturnPct, &meta)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if closedAt.Valid {
		t.ClosedAt = closedAt.Time
	}
	t.Side = domain.Side(side)
	t.Status = domain.TradeStatus(status)
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &t.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode meta for trade ID %d: %w", t.ID, err)
		}
	}
	return t, nil
}

func marshalMeta(meta map[string]interface{}) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
