package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertQuery = `
INSERT INTO news_documents (title, content, url, category, embedding, published_at, created_at)
VALUES ($1,$2,$3,$4,$5::vector,$6,NOW())
ON CONFLICT (url) DO NOTHING
`

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Store{DB: db}, mock
}

func TestNearestByVector(t *testing.T) {
	st, mock := newMock(t)
	st.Dims = 2
	query := regexp.QuoteMeta(`
SELECT id, title, content, url, category, published_at, embedding <=> $1::vector AS distance
FROM news_documents
ORDER BY embedding <=> $1::vector, id
LIMIT $2
`)
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "content", "url", "category", "published_at", "distance"}).
		AddRow(int64(1), "OpenAI ships model", "OpenAI ships model. details", "https://a.example/1", "AI", published, 0.1).
		AddRow(int64(2), "Markets", "Markets.", "https://a.example/2", nil, nil, 0.4)
	mock.ExpectQuery(query).WithArgs("[0.5,0.25]", int64(50)).WillReturnRows(rows)

	got, err := st.NearestByVector(context.Background(), []float32{0.5, 0.25}, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example/1", got[0].Item.URL)
	assert.Equal(t, 0.1, got[0].Distance)
	assert.True(t, got[0].Item.PublishedAt.Equal(published))
	assert.Empty(t, got[1].Item.Category, "null columns map to zero values")
	assert.True(t, got[1].Item.PublishedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNearestByVectorWholeCorpus(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, title`).WithArgs("[1]", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "url", "category", "published_at", "distance"}))

	got, err := st.NearestByVector(context.Background(), []float32{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNearestByVectorDimensionMismatch(t *testing.T) {
	st, _ := newMock(t)
	st.Dims = 384
	_, err := st.NearestByVector(context.Background(), []float32{1, 2}, 5)
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
}

func TestIngestTxInsertIfAbsent(t *testing.T) {
	st, mock := newMock(t)
	st.Dims = 2
	item := models.NewsItem{
		Title:     "GPT",
		Content:   "GPT. desc",
		URL:       "https://a.example/1",
		Category:  "AI",
		Embedding: []float32{0.1, 0.2},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM news_documents WHERE url=$1)`)).
		WithArgs(item.URL).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs("GPT", "GPT. desc", item.URL, "AI", "[0.1,0.2]", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs("GPT", "GPT. desc", item.URL, "AI", "[0.1,0.2]", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := st.BeginIngest(ctx)
	require.NoError(t, err)
	exists, err := tx.ExistsURL(ctx, item.URL)
	require.NoError(t, err)
	assert.False(t, exists)

	inserted, err := tx.InsertIfAbsent(ctx, item)
	require.NoError(t, err)
	assert.True(t, inserted, "first insert")
	inserted, err = tx.InsertIfAbsent(ctx, item)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate insert is a no-op")

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsentRejectsMissingURL(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := st.BeginIngest(context.Background())
	require.NoError(t, err)
	_, err = tx.InsertIfAbsent(context.Background(), models.NewsItem{Title: "x", Embedding: []float32{1}})
	assert.ErrorIs(t, err, models.ErrMissingURL)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM news_documents`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestEncodeVectorLiteral(t *testing.T) {
	lit, err := encodeVectorLiteral([]float32{1, -0.5, 0.125})
	require.NoError(t, err)
	assert.Equal(t, "[1,-0.5,0.125]", lit)

	_, err = encodeVectorLiteral(nil)
	assert.Error(t, err, "empty vector")
}
