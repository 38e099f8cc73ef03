package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"supersonic/model"
)

// Catalog tables as written by the scanner. The server only reads them; the
// statements are here for `catalog init`, `catalog adduser` and tests.
var sqliteCatalogSchema = []string{
	"CREATE TABLE IF NOT EXISTS `albums` (" +
		"`id` INTEGER NOT NULL UNIQUE, `title` TEXT, `artistid` INTEGER, `artist` TEXT, `hascover` INTEGER, " +
		"`cover128` BLOB, `cover256` BLOB, `cover512` BLOB, `cover1024` BLOB, `cover` BLOB, PRIMARY KEY(id))",
	"CREATE TABLE IF NOT EXISTS `artists` (`id` INTEGER NOT NULL UNIQUE, `name` TEXT, PRIMARY KEY(id))",
	"CREATE TABLE IF NOT EXISTS `songs` (" +
		"`id` INTEGER NOT NULL UNIQUE, `title` TEXT, `albumid` INTEGER, `album` TEXT, `artistid` INTEGER, `artist` TEXT, " +
		"`trackn` INTEGER, `discn` INTEGER, `year` INTEGER, `duration` INTEGER, `bitRate` INTEGER, `genre` TEXT, " +
		"`type` TEXT, `filename` TEXT, `timestamp` INTEGER, PRIMARY KEY(id))",
	"CREATE TABLE IF NOT EXISTS `users` (`username` TEXT NOT NULL UNIQUE, `password` TEXT, PRIMARY KEY(username))",
}

var mysqlCatalogSchema = []string{
	"CREATE TABLE IF NOT EXISTS `albums` (" +
		"`id` BIGINT NOT NULL PRIMARY KEY, `title` VARCHAR(512), `artistid` BIGINT, `artist` VARCHAR(512), `hascover` INT, " +
		"`cover128` LONGBLOB, `cover256` LONGBLOB, `cover512` LONGBLOB, `cover1024` LONGBLOB, `cover` LONGBLOB, " +
		"INDEX idx_albums_artistid (artistid))",
	"CREATE TABLE IF NOT EXISTS `artists` (`id` BIGINT NOT NULL PRIMARY KEY, `name` VARCHAR(512))",
	"CREATE TABLE IF NOT EXISTS `songs` (" +
		"`id` BIGINT NOT NULL PRIMARY KEY, `title` VARCHAR(512), `albumid` BIGINT, `album` VARCHAR(512), " +
		"`artistid` BIGINT, `artist` VARCHAR(512), `trackn` INT, `discn` INT, `year` INT, `duration` INT, " +
		"`bitRate` INT, `genre` VARCHAR(255), `type` VARCHAR(16), `filename` VARCHAR(4096), `timestamp` BIGINT, " +
		"INDEX idx_songs_albumid (albumid))",
	"CREATE TABLE IF NOT EXISTS `users` (`username` VARCHAR(255) NOT NULL PRIMARY KEY, `password` VARCHAR(255))",
}

// CreateCatalogSchema creates the catalog tables if they are missing.
func CreateCatalogSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts := sqliteCatalogSchema
	if dialect == DialectMySQL {
		stmts = mysqlCatalogSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog table: %w", err)
		}
	}
	return nil
}

// UpsertUser 写入或更新用户，password 应为 bcrypt 哈希或明文
func UpsertUser(ctx context.Context, db *sql.DB, dialect Dialect, user model.User) error {
	query := "INSERT OR REPLACE INTO users (username, password) VALUES (?, ?)"
	if dialect == DialectMySQL {
		query = "REPLACE INTO users (username, password) VALUES (?, ?)"
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("empty username")
	}
	if _, err := db.ExecContext(ctx, query, user.Username, user.Password); err != nil {
		return fmt.Errorf("failed to save user %q: %w", user.Username, err)
	}
	return nil
}

// InsertArtist, InsertAlbum and InsertSong mirror what the scanner writes.
// They are used to seed test catalogs.

func InsertArtist(ctx context.Context, db *sql.DB, a *model.Artist) error {
	_, err := db.ExecContext(ctx, "INSERT INTO artists (`id`, `name`) VALUES (?, ?)", int64(a.ID), a.Name)
	if err != nil {
		return fmt.Errorf("failed to insert artist %q: %w", a.Name, err)
	}
	return nil
}

// InsertAlbum stores covers in ladder order (see CoverSizes); missing
// renditions may be nil.
func InsertAlbum(ctx context.Context, db *sql.DB, a *model.Album, covers ...[]byte) error {
	blobs := make([]any, len(coverColumns))
	for i := range blobs {
		if i < len(covers) && covers[i] != nil {
			blobs[i] = covers[i]
		}
	}
	hasCover := 0
	if a.HasCover {
		hasCover = 1
	}
	args := append([]any{int64(a.ID), a.Title, int64(a.ArtistID), a.Artist, hasCover}, blobs...)
	_, err := db.ExecContext(ctx, "INSERT INTO albums (`id`, title, artistid, artist, hascover, "+
		strings.Join(coverColumns, ", ")+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args...)
	if err != nil {
		return fmt.Errorf("failed to insert album %q: %w", a.Title, err)
	}
	return nil
}

func InsertSong(ctx context.Context, db *sql.DB, s *model.Song, timestamp int64) error {
	_, err := db.ExecContext(ctx, "INSERT INTO songs ("+songColumns+", `timestamp`) "+
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		int64(s.ID), s.Title, int64(s.AlbumID), s.Album, int64(s.ArtistID), s.Artist,
		s.Track, s.Disc, s.Year, s.Duration, s.BitRate, s.Genre, s.Suffix, s.Filename, timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert song %q: %w", s.Title, err)
	}
	return nil
}
