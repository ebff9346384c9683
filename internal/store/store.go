package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sohanAi024/News-Multi-Agent/models"
)

// DefaultEmbeddingDimensions matches all-MiniLM-L6-v2.
const DefaultEmbeddingDimensions = 384

// Reader is the read side of the corpus used by the ranking pipeline.
type Reader interface {
	// NearestByVector returns up to limit items ordered by ascending cosine distance.
	// A limit <= 0 scans the whole corpus.
	NearestByVector(ctx context.Context, vec []float32, limit int) ([]models.Candidate, error)
	Count(ctx context.Context) (int, error)
}

// IngestTx groups the writes of one ingestion run.
type IngestTx interface {
	ExistsURL(ctx context.Context, url string) (bool, error)
	// InsertIfAbsent stores item unless its URL is already present. The first write wins.
	InsertIfAbsent(ctx context.Context, item models.NewsItem) (bool, error)
	Commit() error
	Rollback() error
}

// Corpus is the full news corpus contract.
type Corpus interface {
	Reader
	ExistsURL(ctx context.Context, url string) (bool, error)
	BeginIngest(ctx context.Context) (IngestTx, error)
}

// Store is the Postgres + pgvector corpus.
type Store struct {
	DB   *sql.DB
	Dims int
}

var _ Corpus = (*Store)(nil)

// NewWithDSN opens and pings the database.
func NewWithDSN(ctx context.Context, dsn string, dims int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{DB: db, Dims: dims}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) ExistsURL(ctx context.Context, url string) (bool, error) {
	return existsURL(ctx, s.DB, url)
}

func existsURL(ctx context.Context, q execer, url string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM news_documents WHERE url=$1)`, url).Scan(&exists)
	return exists, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_documents`).Scan(&n)
	return n, err
}

// NearestByVector runs a cosine-distance scan via the pgvector <=> operator.
func (s *Store) NearestByVector(ctx context.Context, vec []float32, limit int) ([]models.Candidate, error) {
	if err := checkDims(vec, s.Dims); err != nil {
		return nil, err
	}
	vecLiteral, err := encodeVectorLiteral(vec)
	if err != nil {
		return nil, err
	}
	lim := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, content, url, category, published_at, embedding <=> $1::vector AS distance
FROM news_documents
ORDER BY embedding <=> $1::vector, id
LIMIT $2
`, vecLiteral, lim)
	if err != nil {
		return nil, fmt.Errorf("nearest by vector: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var (
			c         models.Candidate
			category  sql.NullString
			published sql.NullTime
		)
		if err := rows.Scan(&c.Item.ID, &c.Item.Title, &c.Item.Content, &c.Item.URL, &category, &published, &c.Distance); err != nil {
			return nil, err
		}
		c.Item.Category = category.String
		if published.Valid {
			c.Item.PublishedAt = published.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// BeginIngest opens a transaction for one ingestion run.
func (s *Store) BeginIngest(ctx context.Context) (IngestTx, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ingest: %w", err)
	}
	return &pgTx{tx: tx, dims: s.Dims}, nil
}

type pgTx struct {
	tx   *sql.Tx
	dims int
}

func (t *pgTx) ExistsURL(ctx context.Context, url string) (bool, error) {
	return existsURL(ctx, t.tx, url)
}

func (t *pgTx) InsertIfAbsent(ctx context.Context, item models.NewsItem) (bool, error) {
	return insertIfAbsent(ctx, t.tx, item, t.dims)
}

func (t *pgTx) Commit() error   { return t.tx.Commit() }
func (t *pgTx) Rollback() error { return t.tx.Rollback() }

func insertIfAbsent(ctx context.Context, q execer, item models.NewsItem, dims int) (bool, error) {
	if strings.TrimSpace(item.URL) == "" {
		return false, models.ErrMissingURL
	}
	if err := checkDims(item.Embedding, dims); err != nil {
		return false, err
	}
	vecLiteral, err := encodeVectorLiteral(item.Embedding)
	if err != nil {
		return false, err
	}
	published := sql.NullTime{Time: item.PublishedAt, Valid: !item.PublishedAt.IsZero()}
	res, err := q.ExecContext(ctx, `
INSERT INTO news_documents (title, content, url, category, embedding, published_at, created_at)
VALUES ($1,$2,$3,$4,$5::vector,$6,NOW())
ON CONFLICT (url) DO NOTHING
`, item.Title, item.Content, item.URL, item.Category, vecLiteral, published)
	if err != nil {
		return false, fmt.Errorf("insert news document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func checkDims(vec []float32, dims int) error {
	if len(vec) == 0 {
		return models.ErrEmptyEmbedding
	}
	if dims > 0 && len(vec) != dims {
		return fmt.Errorf("%w: got %d want %d", models.ErrDimensionMismatch, len(vec), dims)
	}
	return nil
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", errors.New("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
