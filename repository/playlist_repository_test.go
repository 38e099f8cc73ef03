package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"supersonic/core/catalogid"
	"supersonic/model"
)

func TestEmptyPlaylistRepository(t *testing.T) {
	repo := NewEmptyPlaylistRepository()
	pl, err := repo.GetPlaylist(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, pl)
	pls, err := repo.GetPlaylists(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Empty(t, pls)
}

// Runs against a real MySQL when USERDB_TEST_DSN is set.
func TestGormPlaylistRepository(t *testing.T) {
	dsn := os.Getenv("USERDB_TEST_DSN")
	if dsn == "" {
		t.Skip("USERDB_TEST_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&model.Playlist{}))
	require.NoError(t, db.AutoMigrate(&model.Playlist{}))

	ctx := context.Background()
	mine := &model.Playlist{User: "alice", Name: "road trip", Songs: model.SongIDList{
		catalogid.SongID(1, 1, "One More Time", "Discovery", "Daft Punk"),
		catalogid.SongID(2, 1, "Aerodynamic", "Discovery", "Daft Punk"),
	}}
	theirs := &model.Playlist{User: "bob", Name: "focus", Public: true}
	require.NoError(t, db.Create(mine).Error)
	require.NoError(t, db.Create(theirs).Error)

	repo := NewGormPlaylistRepository(db)
	got, err := repo.GetPlaylist(ctx, mine.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, mine.Songs, got.Songs)

	pls, err := repo.GetPlaylists(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pls, 1)
	assert.Equal(t, "road trip", pls[0].Name)

	missing, err := repo.GetPlaylist(ctx, mine.ID+theirs.ID+100)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
