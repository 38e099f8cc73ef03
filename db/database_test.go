package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supersonic/config"
	"supersonic/core/catalogid"
	"supersonic/model"
	"supersonic/repository"
)

func TestCatalogDSN(t *testing.T) {
	cfg := &config.Config{CatalogDriver: "sqlite", CatalogDSN: "/data/music.db"}
	driver, dsn, err := CatalogDSN(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "file:/data/music.db?mode=ro&_pragma=busy_timeout(5000)", dsn)

	cfg = &config.Config{CatalogDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "music"}
	driver, dsn, err = CatalogDSN(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "u:p@tcp(db:3306)/music")
	assert.Contains(t, dsn, "parseTime=true")

	cfg.CatalogDSN = "x:y@tcp(other:3307)/cat"
	_, dsn, err = CatalogDSN(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "x:y@tcp(other:3307)/cat", dsn)

	_, _, err = CatalogDSN(&config.Config{CatalogDriver: "postgres"}, true)
	assert.Error(t, err)
}

func TestConnectCatalogReadOnly(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{CatalogDriver: "sqlite", CatalogDSN: filepath.Join(t.TempDir(), "music.db"), Workers: 2}

	rw, dialect, err := ConnectCatalog(ctx, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, repository.DialectSQLite, dialect)
	require.NoError(t, repository.CreateCatalogSchema(ctx, rw, dialect))
	require.NoError(t, repository.InsertArtist(ctx, rw, &model.Artist{ID: catalogid.ArtistID("Daft Punk"), Name: "Daft Punk"}))
	require.NoError(t, rw.Close())

	ro, _, err := ConnectCatalog(ctx, cfg, true)
	require.NoError(t, err)
	defer ro.Close()

	artists, err := repository.NewSQLCatalogRepository(ro, dialect).GetArtists(ctx)
	require.NoError(t, err)
	require.Len(t, artists, 1)

	err = repository.InsertArtist(ctx, ro, &model.Artist{ID: catalogid.ArtistID("Air"), Name: "Air"})
	assert.Error(t, err, "catalog must be opened read-only")
}

func TestConnectCatalogMissingFile(t *testing.T) {
	cfg := &config.Config{CatalogDriver: "sqlite", CatalogDSN: filepath.Join(t.TempDir(), "nope.db"), Workers: 1}
	_, _, err := ConnectCatalog(context.Background(), cfg, true)
	assert.Error(t, err)
}

func TestConnectRedisDisabled(t *testing.T) {
	client, err := ConnectRedis(context.Background(), &config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, client)
	assert.Error(t, CheckRedis(context.Background(), nil))
}
