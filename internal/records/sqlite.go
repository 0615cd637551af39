package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed ledger. Beyond the resume bookkeeping it also
// keeps the local path and metadata of every downloaded file, which is what
// the library reorganization commands work from.
type Store struct {
	db   *sql.DB
	path string
}

var _ Ledger = (*Store)(nil)

// Open initializes or connects to the records database and applies
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SQLITE_CONSTRAINT_PRIMARYKEY and SQLITE_CONSTRAINT_UNIQUE.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// IsConstraint reports whether err is a SQLite primary-key or unique
// constraint violation.
func IsConstraint(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		code := coder.Code()
		return code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique
	}
	return strings.Contains(err.Error(), "SQLITE_CONSTRAINT")
}

func (s *Store) MarkEpisode(ctx context.Context, episodeID int) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO episode_records (episode_id, created_at) VALUES (?, ?)`,
		episodeID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert episode record: %w", err)
	}
	return nil
}

func (s *Store) EpisodeDone(ctx context.Context, episodeID int) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM episode_records WHERE episode_id = ?`, episodeID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("query episode record: %w", err)
	}
	return count > 0, nil
}

// MarkPart inserts a part record. Inserting the same (episode, part) twice
// fails the primary key; callers that care distinguish that case with
// IsConstraint. Tokens may repeat, episodes with duplicate parts exist
// upstream.
func (s *Store) MarkPart(ctx context.Context, part Part) error {
	var info any
	if len(part.Info) > 0 {
		info = string(part.Info)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO part_records (episode_id, episode_part, youtube_token, local_path, info_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		part.EpisodeID,
		part.EpisodePart,
		part.Token,
		part.LocalPath,
		info,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert part record: %w", err)
	}
	return nil
}

func (s *Store) PartDone(ctx context.Context, episodeID, episodePart int) (bool, error) {
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM part_records WHERE episode_id = ? AND episode_part = ?`,
		episodeID,
		episodePart,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("query part record: %w", err)
	}
	return count > 0, nil
}

// RemoveEpisode deletes a whole-episode record.
func (s *Store) RemoveEpisode(ctx context.Context, episodeID int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM episode_records WHERE episode_id = ?`, episodeID)
	if err != nil {
		return false, fmt.Errorf("delete episode record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RemovePart deletes one part record.
func (s *Store) RemovePart(ctx context.Context, episodeID, episodePart int) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM part_records WHERE episode_id = ? AND episode_part = ?`,
		episodeID,
		episodePart,
	)
	if err != nil {
		return false, fmt.Errorf("delete part record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const partColumns = "episode_id, episode_part, youtube_token, local_path, info_json"

func scanPart(scanner interface{ Scan(dest ...any) error }) (Part, error) {
	var (
		part Part
		info sql.NullString
	)
	if err := scanner.Scan(&part.EpisodeID, &part.EpisodePart, &part.Token, &part.LocalPath, &info); err != nil {
		return Part{}, err
	}
	if info.Valid {
		part.Info = []byte(info.String)
	}
	return part, nil
}

func (s *Store) queryParts(ctx context.Context, query string, args ...any) ([]Part, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query part records: %w", err)
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

// Parts returns every part record ordered by episode and part.
func (s *Store) Parts(ctx context.Context) ([]Part, error) {
	return s.queryParts(ctx, `SELECT `+partColumns+` FROM part_records ORDER BY episode_id, episode_part`)
}

// PartsByEpisode returns the part records of one episode.
func (s *Store) PartsByEpisode(ctx context.Context, episodeID int) ([]Part, error) {
	return s.queryParts(
		ctx,
		`SELECT `+partColumns+` FROM part_records WHERE episode_id = ? ORDER BY episode_part`,
		episodeID,
	)
}

// PartByLocalPath returns the part record tracking a file, if any.
func (s *Store) PartByLocalPath(ctx context.Context, localPath string) (*Part, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+partColumns+` FROM part_records WHERE local_path = ? LIMIT 1`,
		localPath,
	)
	part, err := scanPart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query part by path: %w", err)
	}
	return &part, nil
}

// EpisodeIDsWithParts returns the distinct episode ids that have at least
// one part record.
func (s *Store) EpisodeIDsWithParts(ctx context.Context) ([]int, error) {
	return s.queryIDs(ctx, `SELECT DISTINCT episode_id FROM part_records ORDER BY episode_id`)
}

// CompleteEpisodeIDs returns the episode ids marked fully downloaded.
func (s *Store) CompleteEpisodeIDs(ctx context.Context) ([]int, error) {
	return s.queryIDs(ctx, `SELECT episode_id FROM episode_records ORDER BY episode_id`)
}

func (s *Store) queryIDs(ctx context.Context, query string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query episode ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
