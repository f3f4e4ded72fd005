// Package classcache persists the caller's class roster in a local SQLite
// database so tools can accept a class name, class code, or slug
// interchangeably without hitting the gateway for every lookup.
package classcache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"golang.org/x/text/cases"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const walJournalSizeLimit = 8388608 // 8 MiB, the roster is tiny

var (
	// ErrNotFound means no cached class matched the reference.
	ErrNotFound = errors.New("class not found in cache")

	// ErrAmbiguous means the reference matched more than one cached class.
	ErrAmbiguous = errors.New("class reference is ambiguous")
)

var folder = cases.Fold()

// Entry is one cached class.
type Entry struct {
	ID         string
	SlugID     string
	Name       string
	ClassCode  string
	CourseCode string
	Stage      string
}

// Cache is the SQLite-backed class roster.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger

	upsert, purge, bySlug, byFold, byFoldLike, listAll, newest *sql.Stmt
}

// New opens (or creates) the cache database at dbPath, applying migrations.
// Use ":memory:" for tests.
func New(dbPath string, logger *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open class cache: %w", err)
	}

	ctx := context.Background()
	if err := setPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	c := &Cache{db: db, logger: logger}
	if err := c.prepareStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare class cache statements: %w", err)
	}

	logger.Debug("class cache ready", "path", dbPath)

	return c, nil
}

func setPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA journal_size_limit = %d", walJournalSizeLimit),
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	return nil
}

// runMigrations applies pending schema migrations using the goose v3
// Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("classcache: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("classcache: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("classcache: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied class cache migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

func (c *Cache) prepareStatements(ctx context.Context) error {
	var err error

	prepare := func(dst **sql.Stmt, query string) {
		if err != nil {
			return
		}
		*dst, err = c.db.PrepareContext(ctx, query)
	}

	prepare(&c.upsert, `
		INSERT INTO classes (id, slug_id, name, name_folded, class_code, code_folded, course_code, stage, refreshed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug_id = excluded.slug_id,
			name = excluded.name,
			name_folded = excluded.name_folded,
			class_code = excluded.class_code,
			code_folded = excluded.code_folded,
			course_code = excluded.course_code,
			stage = excluded.stage,
			refreshed_at = excluded.refreshed_at`)
	prepare(&c.purge, `DELETE FROM classes WHERE refreshed_at < ?`)
	prepare(&c.bySlug, `
		SELECT id, slug_id, name, class_code, course_code, stage
		FROM classes WHERE slug_id = ?`)
	prepare(&c.byFold, `
		SELECT id, slug_id, name, class_code, course_code, stage
		FROM classes WHERE name_folded = ? OR code_folded = ?`)
	prepare(&c.byFoldLike, `
		SELECT id, slug_id, name, class_code, course_code, stage
		FROM classes WHERE name_folded LIKE ? ESCAPE '\'`)
	prepare(&c.listAll, `
		SELECT id, slug_id, name, class_code, course_code, stage
		FROM classes ORDER BY name`)
	prepare(&c.newest, `SELECT MAX(refreshed_at) FROM classes`)

	return err
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Populate replaces the cached roster with the given entries. Classes absent
// from the new roster are purged.
func (c *Cache) Populate(ctx context.Context, entries []Entry) error {
	// Nanosecond stamps so a repopulate within the same second still purges
	// the previous roster.
	now := time.Now().UnixNano()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("classcache: begin populate: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.StmtContext(ctx, c.upsert).ExecContext(ctx,
			e.ID, e.SlugID, e.Name, folder.String(e.Name),
			e.ClassCode, folder.String(e.ClassCode),
			e.CourseCode, e.Stage, now)
		if err != nil {
			return fmt.Errorf("classcache: upsert class %s: %w", e.ID, err)
		}
	}

	if _, err := tx.StmtContext(ctx, c.purge).ExecContext(ctx, now); err != nil {
		return fmt.Errorf("classcache: purge stale classes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("classcache: commit populate: %w", err)
	}

	c.logger.Debug("class cache populated", "classes", len(entries))

	return nil
}

// Resolve maps a class reference (slug, class code, or name, any case) to a
// cached entry. Exact slug wins, then exact folded name/code, then a unique
// folded substring match.
func (c *Cache) Resolve(ctx context.Context, ref string) (*Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("classcache: %w: empty reference", ErrNotFound)
	}

	if entry, err := c.queryOne(ctx, c.bySlug, ref); err == nil {
		return entry, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	folded := folder.String(ref)

	entries, err := c.queryMany(ctx, c.byFold, folded, folded)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		pattern := "%" + escapeLike(folded) + "%"
		entries, err = c.queryMany(ctx, c.byFoldLike, pattern)
		if err != nil {
			return nil, err
		}
	}

	switch len(entries) {
	case 0:
		return nil, fmt.Errorf("classcache: %w: %q", ErrNotFound, ref)
	case 1:
		return &entries[0], nil
	default:
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return nil, fmt.Errorf("classcache: %w: %q matches %s", ErrAmbiguous, ref, strings.Join(names, ", "))
	}
}

// All returns the cached roster ordered by name.
func (c *Cache) All(ctx context.Context) ([]Entry, error) {
	return c.queryMany(ctx, c.listAll)
}

// RefreshedAt returns when the roster was last populated, zero if never.
func (c *Cache) RefreshedAt(ctx context.Context) (time.Time, error) {
	var stamp sql.NullInt64
	if err := c.newest.QueryRowContext(ctx).Scan(&stamp); err != nil {
		return time.Time{}, fmt.Errorf("classcache: read refresh stamp: %w", err)
	}
	if !stamp.Valid || stamp.Int64 == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, stamp.Int64), nil
}

func (c *Cache) queryOne(ctx context.Context, stmt *sql.Stmt, args ...any) (*Entry, error) {
	var e Entry
	err := stmt.QueryRowContext(ctx, args...).
		Scan(&e.ID, &e.SlugID, &e.Name, &e.ClassCode, &e.CourseCode, &e.Stage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("classcache: query class: %w", err)
	}
	return &e, nil
}

func (c *Cache) queryMany(ctx context.Context, stmt *sql.Stmt, args ...any) ([]Entry, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("classcache: query classes: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SlugID, &e.Name, &e.ClassCode, &e.CourseCode, &e.Stage); err != nil {
			return nil, fmt.Errorf("classcache: scan class: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
