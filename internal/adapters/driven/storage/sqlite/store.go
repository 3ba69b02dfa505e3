package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.dropsync/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".dropsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RuleStore returns a RuleStore interface backed by this store.
func (s *Store) RuleStore() driven.RuleStore {
	return &ruleStore{store: s}
}

// TransferLogStore returns a TransferLogStore interface backed by this store.
func (s *Store) TransferLogStore() driven.TransferLogStore {
	return &transferLogStore{store: s}
}

// DecryptLogStore returns a DecryptLogStore interface backed by this store.
func (s *Store) DecryptLogStore() driven.DecryptLogStore {
	return &decryptLogStore{store: s}
}

// AdhocStore returns an AdhocStore interface backed by this store.
func (s *Store) AdhocStore() driven.AdhocStore {
	return &adhocStore{store: s}
}

// FileTypeStore returns a FileTypeStore interface backed by this store.
func (s *Store) FileTypeStore() driven.FileTypeStore {
	return &fileTypeStore{store: s}
}

// UploadStore returns an UploadStore interface backed by this store.
func (s *Store) UploadStore() driven.UploadStore {
	return &uploadStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Rule Store ====================

// ruleStore implements driven.RuleStore.
type ruleStore struct {
	store *Store
}

var _ driven.RuleStore = (*ruleStore)(nil)

const ruleColumns = `id, description, module, enabled, priority, period, weekday, monthday,
	match_type, match_spec, dest_path, dest_filename, dest_conflict,
	retry_attempts, retry_delay_ms, created_at, updated_at`

// Save stores or updates a rule. New rules get the next insertion
// position for priority tie-breaking.
func (s *ruleStore) Save(ctx context.Context, rule domain.MappingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	matchJSON, err := json.Marshal(rule.Match)
	if err != nil {
		return fmt.Errorf("marshalling match spec: %w", err)
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO mapping_rules (`+ruleColumns+`, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT MAX(position) + 1 FROM mapping_rules), 0))
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			module = excluded.module,
			enabled = excluded.enabled,
			priority = excluded.priority,
			period = excluded.period,
			weekday = excluded.weekday,
			monthday = excluded.monthday,
			match_type = excluded.match_type,
			match_spec = excluded.match_spec,
			dest_path = excluded.dest_path,
			dest_filename = excluded.dest_filename,
			dest_conflict = excluded.dest_conflict,
			retry_attempts = excluded.retry_attempts,
			retry_delay_ms = excluded.retry_delay_ms,
			updated_at = excluded.updated_at
	`, rule.ID, rule.Description, rule.Module, boolToInt(rule.Enabled), rule.Priority,
		string(rule.Schedule.Period), rule.Schedule.Weekday, rule.Schedule.Monthday,
		string(rule.Match.Type), string(matchJSON),
		rule.Destination.Path, rule.Destination.Filename, string(rule.Destination.Conflict),
		rule.Retry.Attempts, rule.Retry.Delay.Milliseconds(),
		rule.CreatedAt, rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving rule: %w", err)
	}
	return nil
}

// Get retrieves a rule by ID.
func (s *ruleStore) Get(ctx context.Context, id string) (*domain.MappingRule, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+` FROM mapping_rules WHERE id = ?
	`, id)

	rule, err := scanRule(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rule, nil
}

// List returns all rules in insertion order.
func (s *ruleStore) List(ctx context.Context) ([]domain.MappingRule, error) {
	return s.query(ctx, `
		SELECT `+ruleColumns+` FROM mapping_rules ORDER BY position
	`)
}

// ListEnabled returns enabled rules sorted by priority descending,
// insertion order on ties.
func (s *ruleStore) ListEnabled(ctx context.Context) ([]domain.MappingRule, error) {
	return s.query(ctx, `
		SELECT `+ruleColumns+` FROM mapping_rules
		WHERE enabled = 1
		ORDER BY priority DESC, position
	`)
}

func (s *ruleStore) query(ctx context.Context, query string) ([]domain.MappingRule, error) {
	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.MappingRule //nolint:prealloc // size unknown from query
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return rules, nil
}

// scanRule scans one rule row given a Scan function.
func scanRule(scan func(dest ...any) error) (*domain.MappingRule, error) {
	var rule domain.MappingRule
	var enabled int
	var period, matchType, conflict, matchJSON string
	var retryDelayMs int64
	var createdAt, updatedAt sql.NullTime

	if err := scan(&rule.ID, &rule.Description, &rule.Module, &enabled, &rule.Priority,
		&period, &rule.Schedule.Weekday, &rule.Schedule.Monthday,
		&matchType, &matchJSON,
		&rule.Destination.Path, &rule.Destination.Filename, &conflict,
		&rule.Retry.Attempts, &retryDelayMs, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning rule: %w", err)
	}

	rule.Enabled = enabled == 1
	rule.Schedule.Period = domain.Period(period)
	rule.Destination.Conflict = domain.ConflictPolicy(conflict)
	rule.Retry.Delay = time.Duration(retryDelayMs) * time.Millisecond
	if err := json.Unmarshal([]byte(matchJSON), &rule.Match); err != nil {
		return nil, fmt.Errorf("unmarshalling match spec: %w", err)
	}
	rule.Match.Type = domain.MatchType(matchType)
	if createdAt.Valid {
		rule.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rule.UpdatedAt = updatedAt.Time
	}

	return &rule, nil
}

// ==================== Adhoc Store ====================

// adhocStore implements driven.AdhocStore.
type adhocStore struct {
	store *Store
}

var _ driven.AdhocStore = (*adhocStore)(nil)

// IsSynced reports whether a synced record exists for the pair.
func (s *adhocStore) IsSynced(ctx context.Context, ruleID, filename string) (bool, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM adhoc_sync_records
		WHERE rule_id = ? AND filename = ? AND status = ?
	`, ruleID, filename, domain.AdhocStatusSynced).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking adhoc record: %w", err)
	}
	return count > 0, nil
}

// MarkSynced inserts a synced record.
func (s *adhocStore) MarkSynced(ctx context.Context, record domain.AdhocSyncRecord) error {
	result, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO adhoc_sync_records (rule_id, filename, status, sync_time)
		VALUES (?, ?, ?, ?)
	`, record.RuleID, record.Filename, record.Status, record.SyncTime.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving adhoc record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// ListByRule returns all records for a rule.
func (s *adhocStore) ListByRule(ctx context.Context, ruleID string) ([]domain.AdhocSyncRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT rule_id, filename, status, sync_time
		FROM adhoc_sync_records WHERE rule_id = ?
	`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("querying adhoc records: %w", err)
	}
	defer rows.Close()

	var records []domain.AdhocSyncRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var record domain.AdhocSyncRecord
		var syncTime string
		if err := rows.Scan(&record.RuleID, &record.Filename, &record.Status, &syncTime); err != nil {
			return nil, fmt.Errorf("scanning adhoc record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, syncTime); err == nil {
			record.SyncTime = t
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating adhoc records: %w", err)
	}

	return records, nil
}

// ==================== File Type Store ====================

// fileTypeStore implements driven.FileTypeStore.
type fileTypeStore struct {
	store *Store
}

var _ driven.FileTypeStore = (*fileTypeStore)(nil)

// Get retrieves a registry entry by ID.
func (s *fileTypeStore) Get(ctx context.Context, id string) (*domain.FileType, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, extensions FROM file_types WHERE id = ?
	`, id)

	var fileType domain.FileType
	var extensionsJSON string
	if err := row.Scan(&fileType.ID, &fileType.Name, &extensionsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file type: %w", err)
	}
	if err := json.Unmarshal([]byte(extensionsJSON), &fileType.Extensions); err != nil {
		return nil, fmt.Errorf("unmarshalling extensions: %w", err)
	}
	return &fileType, nil
}

// List returns all registry entries.
func (s *fileTypeStore) List(ctx context.Context) ([]domain.FileType, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, name, extensions FROM file_types`)
	if err != nil {
		return nil, fmt.Errorf("querying file types: %w", err)
	}
	defer rows.Close()

	var types []domain.FileType //nolint:prealloc // size unknown from query
	for rows.Next() {
		var fileType domain.FileType
		var extensionsJSON string
		if err := rows.Scan(&fileType.ID, &fileType.Name, &extensionsJSON); err != nil {
			return nil, fmt.Errorf("scanning file type: %w", err)
		}
		if err := json.Unmarshal([]byte(extensionsJSON), &fileType.Extensions); err != nil {
			return nil, fmt.Errorf("unmarshalling extensions: %w", err)
		}
		types = append(types, fileType)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file types: %w", err)
	}

	return types, nil
}

// ==================== Upload Store ====================

// uploadStore implements driven.UploadStore.
type uploadStore struct {
	store *Store
}

var _ driven.UploadStore = (*uploadStore)(nil)

// Record inserts an upload record.
func (s *uploadStore) Record(ctx context.Context, upload domain.UploadRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO uploads (id, file_type_id, file_path, filename, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
	`, upload.ID, upload.FileTypeID, upload.FilePath, upload.Filename,
		upload.UploadedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

// ListByFileType returns uploads tagged with a file type, oldest first.
func (s *uploadStore) ListByFileType(ctx context.Context, fileTypeID string) ([]domain.UploadRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, file_type_id, file_path, filename, uploaded_at
		FROM uploads WHERE file_type_id = ?
		ORDER BY uploaded_at
	`, fileTypeID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var uploads []domain.UploadRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var upload domain.UploadRecord
		var uploadedAt string
		if err := rows.Scan(&upload.ID, &upload.FileTypeID, &upload.FilePath,
			&upload.Filename, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, uploadedAt); err == nil {
			upload.UploadedAt = t
		}
		uploads = append(uploads, upload)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating uploads: %w", err)
	}

	return uploads, nil
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
