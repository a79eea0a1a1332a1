//go:build integration

package auditlog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("claimresolver_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))
	return pool
}

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	require.NoError(t, client.Ping(ctx, nil))
	return client.Database("claimresolver_test")
}

// integrationEntries uses real UUIDs since PostgreSQL stores ids as UUID.
func integrationEntries(base time.Time) []*LogEntry {
	entries := make([]*LogEntry, 12)
	for i := range entries {
		e := testEntry(i, base.Add(time.Duration(i)*time.Minute))
		e.ID = uuid.NewString()
		entries[i] = e
	}
	return entries
}

func exerciseReader(t *testing.T, reader Reader, entries []*LogEntry) {
	t.Helper()
	ctx := context.Background()

	res, err := reader.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, len(entries), res.Total)
	require.NotEmpty(t, res.Entries)
	assert.Equal(t, entries[len(entries)-1].TransactionID, res.Entries[0].TransactionID)

	res, err = reader.List(ctx, Query{FailedOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, len(entries)/2, res.Total)
	assert.Len(t, res.Entries, 2)

	got, err := reader.Get(ctx, entries[4].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entries[4].TransactionID, got.TransactionID)
	require.NotNil(t, got.Data)
	assert.Equal(t, []string{"Review the rejection"}, got.Data.Suggestions)

	missing, err := reader.Get(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgreSQLStore_Integration(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	store, err := NewPostgreSQLStore(ctx, pool, 0)
	require.NoError(t, err)
	defer store.Close()

	entries := integrationEntries(time.Now().Add(-time.Hour))
	require.NoError(t, store.WriteBatch(ctx, entries))
	require.NoError(t, store.WriteBatch(ctx, entries[:2]), "duplicates are ignored")

	reader, err := NewPostgreSQLReader(pool)
	require.NoError(t, err)
	exerciseReader(t, reader, entries)

	store.retentionDays = 1
	old := testEntry(99, time.Now().AddDate(0, 0, -3))
	old.ID = uuid.NewString()
	require.NoError(t, store.WriteBatch(ctx, []*LogEntry{old}))
	store.cleanup()
	gone, err := reader.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMongoDBStore_Integration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()

	store, err := NewMongoDBStore(ctx, db, 30)
	require.NoError(t, err)
	defer store.Close()

	entries := integrationEntries(time.Now().Add(-time.Hour).Truncate(time.Millisecond))
	require.NoError(t, store.WriteBatch(ctx, entries))
	require.NoError(t, store.WriteBatch(ctx, entries[:2]), "duplicate keys are a partial failure")

	reader, err := NewMongoDBReader(db)
	require.NoError(t, err)
	exerciseReader(t, reader, entries)
}
