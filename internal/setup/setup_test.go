package setup

import (
	"context"
	"testing"

	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_SQLiteMigrates(t *testing.T) {
	db, err := InitDB(&config.MySQLConfig{Driver: "sqlite", DSN: "file::memory:?cache=shared", MaxIdleConns: 1, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })

	for _, table := range []string{"users", "files", "shares", "share_access_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestEnsureBucket_CreatesMissing(t *testing.T) {
	svc := storagetest.NewMemoryStorage("default")
	require.NoError(t, EnsureBucket(context.Background(), svc, "shares"))

	ok, err := svc.IsBucketExist(context.Background(), "shares")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOptionalClientsDisabled(t *testing.T) {
	rdb, err := InitRedis(context.Background(), &config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	es, err := InitElasticsearchClient(&config.ElasticsearchConfig{})
	require.NoError(t, err)
	assert.Nil(t, es)
}

func TestInitBadger_InMemory(t *testing.T) {
	db, err := InitBadger(&config.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	CloseBadger(db)
}
