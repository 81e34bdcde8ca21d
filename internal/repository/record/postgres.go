package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/kailas-cloud/coursedex/internal/domain"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
)

// OpenPostgres opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresRepo reads records stored as JSONB documents:
// courses(unique_id text primary key, data jsonb) and
// universities(unique_code text primary key, data jsonb).
type PostgresRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres creates a repository over an open database.
func NewPostgres(db *sql.DB, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

// Ping checks connectivity.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.PingContext(ctx) //nolint:wrapcheck // health probe
}

// Close closes the pool.
func (r *PostgresRepo) Close(context.Context) error {
	return r.db.Close() //nolint:wrapcheck // shutdown
}

// ListCourses returns every course ordered by unique_id. Rows whose document
// does not decode are reported in invalid.
func (r *PostgresRepo) ListCourses(ctx context.Context) (courses []domrec.Course, invalid []error, err error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT unique_id, data FROM courses ORDER BY unique_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	courses, invalid, err = collectRows(rows, decodeCourse)
	if err != nil {
		return nil, nil, fmt.Errorf("read courses: %w", err)
	}
	return courses, invalid, nil
}

// GetCourse returns the course with the given unique_id.
func (r *PostgresRepo) GetCourse(ctx context.Context, id string) (domrec.Course, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM courses WHERE unique_id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Course{}, fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domrec.Course{}, fmt.Errorf("query course %s: %w", id, err)
	}
	return decodeCourse(id, data)
}

// ListUniversities returns every university ordered by unique_code, with
// undecodable rows reported in invalid.
func (r *PostgresRepo) ListUniversities(ctx context.Context) (universities []domrec.University, invalid []error, err error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT unique_code, data FROM universities ORDER BY unique_code`)
	if err != nil {
		return nil, nil, fmt.Errorf("query universities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	universities, invalid, err = collectRows(rows, decodeUniversity)
	if err != nil {
		return nil, nil, fmt.Errorf("read universities: %w", err)
	}
	return universities, invalid, nil
}

// rowScanner is the part of *sql.Rows used by collectRows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// collectRows reads (key, data) rows. Decode failures are collected and the
// row skipped; scan and iteration failures abort.
func collectRows[T any](rows rowScanner, decode func(key string, data []byte) (T, error)) ([]T, []error, error) {
	out := []T{}
	var invalid []error
	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		v, err := decode(key, data)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate: %w", err)
	}
	return out, invalid, nil
}

// decodeCourse unmarshals a course document. The key column is authoritative
// for the id. Failures are *domain.MappingError.
func decodeCourse(id string, data []byte) (domrec.Course, error) {
	var c domrec.Course
	if err := json.Unmarshal(data, &c); err != nil {
		return domrec.Course{}, domain.NewMappingError(id, "decode: "+err.Error())
	}
	c.UniqueID = id
	return c, nil
}

func decodeUniversity(code string, data []byte) (domrec.University, error) {
	var u domrec.University
	if err := json.Unmarshal(data, &u); err != nil {
		return domrec.University{}, domain.NewMappingError(code, "decode: "+err.Error())
	}
	u.UniqueCode = code
	return u, nil
}
