package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("catalog: not found")

const defaultTimeout = 5 * time.Second

// Store manages the photo catalog database.
type Store struct {
	db      *sql.DB
	dbPath  string
	txStart time.Time
}

// Open opens (creating if needed) the catalog database at dbPath. The
// parent directory must already exist and be writable.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	// WAL with a busy timeout avoids "database is locked" errors when a
	// scrape or second command touches the catalog mid-ingest.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Debug("catalog opened at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS photographs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_hash TEXT UNIQUE,
		stored_image TEXT,
		capture_time INTEGER,
		camera_model TEXT,
		has_errors INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS photo_paths (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		device TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		file_created_at INTEGER,
		file_modified_at INTEGER NOT NULL,
		photograph_id INTEGER REFERENCES photographs(id) ON DELETE SET NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(path, device)
	);

	CREATE INDEX IF NOT EXISTS idx_photo_paths_photograph ON photo_paths(photograph_id);
	CREATE INDEX IF NOT EXISTS idx_photo_paths_device ON photo_paths(device);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(initCtx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginBatch starts a transaction for a unit of catalog mutations.
// Transaction lifetime is managed by EndBatch, not a timeout.
func (s *Store) BeginBatch() (*sql.Tx, error) {
	s.txStart = time.Now()
	return s.db.BeginTx(context.Background(), nil)
}

// EndBatch commits the transaction when err is nil, otherwise rolls it
// back and returns err (joined with any rollback failure).
func (s *Store) EndBatch(tx *sql.Tx, err error) error {
	duration := time.Since(s.txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// FindPhotographByHash looks up the photograph carrying the given
// content hash inside tx. Returns ErrNotFound when no photograph has it.
func (s *Store) FindPhotographByHash(tx *sql.Tx, hash string) (*Photograph, error) {
	row := tx.QueryRow(`
		SELECT id, content_hash, stored_image, capture_time, camera_model, has_errors, created_at, updated_at
		FROM photographs WHERE content_hash = ?`, hash)
	return scanPhotograph(row)
}

// CreatePhotograph inserts p and fills its ID and timestamps.
func (s *Store) CreatePhotograph(tx *sql.Tx, p *Photograph) error {
	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO photographs (content_hash, stored_image, capture_time, camera_model, has_errors, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullString(p.ContentHash), nullString(p.StoredImage), nullTime(p.CaptureTime),
		nullString(p.CameraModel), p.HasErrors, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to create photograph: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read photograph id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// UpdatePhotograph rewrites the mutable fields of p.
func (s *Store) UpdatePhotograph(tx *sql.Tx, p *Photograph) error {
	now := time.Now()
	_, err := tx.Exec(`
		UPDATE photographs
		SET content_hash = ?, stored_image = ?, capture_time = ?, camera_model = ?, has_errors = ?, updated_at = ?
		WHERE id = ?`,
		nullString(p.ContentHash), nullString(p.StoredImage), nullTime(p.CaptureTime),
		nullString(p.CameraModel), p.HasErrors, now.Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update photograph %d: %w", p.ID, err)
	}
	p.UpdatedAt = now
	return nil
}

// FindPath looks up the photo path for the (path, device) pair inside
// tx. Returns ErrNotFound when the pair has never been ingested.
func (s *Store) FindPath(tx *sql.Tx, path, device string) (*PhotoPath, error) {
	row := tx.QueryRow(`
		SELECT id, path, device, size, file_created_at, file_modified_at, photograph_id, created_at, updated_at
		FROM photo_paths WHERE path = ? AND device = ?`, path, device)
	return scanPhotoPath(row)
}

// CreateOrUpdatePath upserts pp on its (path, device) pair and fills its
// ID.
func (s *Store) CreateOrUpdatePath(tx *sql.Tx, pp *PhotoPath) error {
	now := time.Now()
	_, err := tx.Exec(`
		INSERT INTO photo_paths (path, device, size, file_created_at, file_modified_at, photograph_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path, device) DO UPDATE SET
			size = excluded.size,
			file_created_at = excluded.file_created_at,
			file_modified_at = excluded.file_modified_at,
			photograph_id = excluded.photograph_id,
			updated_at = excluded.updated_at`,
		pp.Path, pp.Device, pp.Size, nullTime(pp.FileCreatedAt), pp.FileModifiedAt.Unix(),
		nullInt(pp.PhotographID), now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert path %s on %s: %w", pp.Path, pp.Device, err)
	}

	row := tx.QueryRow(`SELECT id FROM photo_paths WHERE path = ? AND device = ?`, pp.Path, pp.Device)
	if err := row.Scan(&pp.ID); err != nil {
		return fmt.Errorf("failed to read path id: %w", err)
	}
	pp.UpdatedAt = now
	return nil
}

// GetPhotograph reads a photograph by id outside any transaction.
func (s *Store) GetPhotograph(id int64) (*Photograph, error) {
	row := s.db.QueryRow(`
		SELECT id, content_hash, stored_image, capture_time, camera_model, has_errors, created_at, updated_at
		FROM photographs WHERE id = ?`, id)
	return scanPhotograph(row)
}

// CountPhotographs reports the number of photographs in the catalog.
func (s *Store) CountPhotographs() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM photographs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count photographs: %w", err)
	}
	return n, nil
}

// ListPaths returns every photo path, ordered by device then path.
func (s *Store) ListPaths() ([]PhotoPath, error) {
	rows, err := s.db.Query(`
		SELECT id, path, device, size, file_created_at, file_modified_at, photograph_id, created_at, updated_at
		FROM photo_paths ORDER BY device, path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close rows: %v", err)
		}
	}()

	var paths []PhotoPath
	for rows.Next() {
		pp, err := scanPhotoPath(rows)
		if err != nil {
			return nil, err
		}
		paths = append(paths, *pp)
	}
	return paths, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhotograph(row rowScanner) (*Photograph, error) {
	var (
		p           Photograph
		hash, image sql.NullString
		capture     sql.NullInt64
		model       sql.NullString
		created     int64
		updated     int64
	)
	err := row.Scan(&p.ID, &hash, &image, &capture, &model, &p.HasErrors, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan photograph: %w", err)
	}

	p.ContentHash = stringPtr(hash)
	p.StoredImage = stringPtr(image)
	p.CaptureTime = timePtr(capture)
	p.CameraModel = stringPtr(model)
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)
	return &p, nil
}

func scanPhotoPath(row rowScanner) (*PhotoPath, error) {
	var (
		pp      PhotoPath
		fileCt  sql.NullInt64
		fileMt  int64
		photoID sql.NullInt64
		created int64
		updated int64
	)
	err := row.Scan(&pp.ID, &pp.Path, &pp.Device, &pp.Size, &fileCt, &fileMt, &photoID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo path: %w", err)
	}

	pp.FileCreatedAt = timePtr(fileCt)
	pp.FileModifiedAt = time.Unix(fileMt, 0)
	if photoID.Valid {
		pp.PhotographID = &photoID.Int64
	}
	pp.CreatedAt = time.Unix(created, 0)
	pp.UpdatedAt = time.Unix(updated, 0)
	return &pp, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}
