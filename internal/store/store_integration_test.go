package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sohanAi024/News-Multi-Agent/internal/store"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func unitVector(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1
	return v
}

func TestPostgresCorpusRoundTrip(t *testing.T) {
	if testing.Short() || os.Getenv("NEWSAGENT_INTEGRATION") != "1" {
		t.Skip("set NEWSAGENT_INTEGRATION=1 to run postgres integration tests")
	}
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("news"),
		tcPostgres.WithUsername("news"),
		tcPostgres.WithPassword("news"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	require.NoError(t, err, "postgres container")
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://news:news@%s:%s/news?sslmode=disable", host, port.Port())

	m, err := migrate.New("file://../../migrations", dsn)
	require.NoError(t, err, "migrate init")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err, "migrate up")
	}

	st, err := store.NewWithDSN(ctx, dsn, store.DefaultEmbeddingDimensions)
	require.NoError(t, err)
	defer st.Close()

	tx, err := st.BeginIngest(ctx)
	require.NoError(t, err)
	items := []models.NewsItem{
		{Title: "first", Content: "first.", URL: "https://n.example/1", Category: "AI", Embedding: unitVector(384, 0)},
		{Title: "second", Content: "second.", URL: "https://n.example/2", Category: "Tech", Embedding: unitVector(384, 1)},
		{Title: "dup", Content: "dup.", URL: "https://n.example/1", Category: "AI", Embedding: unitVector(384, 2)},
	}
	for _, it := range items {
		_, err := tx.InsertIfAbsent(ctx, it)
		require.NoError(t, err, "insert %s", it.URL)
	}
	require.NoError(t, tx.Commit())

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := st.NearestByVector(ctx, unitVector(384, 0), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Item.Title)
	assert.LessOrEqual(t, got[0].Distance, 1e-6)

	// rolled back writes are not visible
	tx, err = st.BeginIngest(ctx)
	require.NoError(t, err)
	_, err = tx.InsertIfAbsent(ctx, models.NewsItem{Title: "gone", Content: "gone.", URL: "https://n.example/3", Embedding: unitVector(384, 3)})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	ok, _ := st.ExistsURL(ctx, "https://n.example/3")
	assert.False(t, ok, "rolled back item should not exist")
}
