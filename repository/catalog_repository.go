package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supersonic/core/auth"
	"supersonic/core/catalogid"
	"supersonic/model"
)

// Dialect 目录数据库方言
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// CatalogRepository 定义目录（艺术家/专辑/歌曲）的只读查询接口
// 查不到时返回 (nil, nil) 或空切片
type CatalogRepository interface {
	auth.Verifier

	// GetAlbum 根据ID获取专辑
	GetAlbum(ctx context.Context, id catalogid.ID) (*model.Album, error)

	// GetAlbumsByArtist 获取艺术家的所有专辑，按标题排序
	GetAlbumsByArtist(ctx context.Context, artistID catalogid.ID) ([]*model.Album, error)

	// GetAllAlbumsSorted 分页获取全部专辑，按标题排序
	GetAllAlbumsSorted(ctx context.Context, offset, limit int) ([]*model.Album, error)

	// GetSongsByAlbum 获取专辑中的歌曲，按 track, disc 排序
	GetSongsByAlbum(ctx context.Context, albumID catalogid.ID) ([]*model.Song, error)

	// GetSong 根据ID获取歌曲
	GetSong(ctx context.Context, id catalogid.ID) (*model.Song, error)

	// GetRandomSongs 随机返回最多 limit 首歌曲
	GetRandomSongs(ctx context.Context, limit int) ([]*model.Song, error)

	// GetArtists 获取全部艺术家，按名字排序
	GetArtists(ctx context.Context) ([]*model.Artist, error)

	// GetSongFile 获取歌曲文件名，不存在时返回空串
	GetSongFile(ctx context.Context, songID catalogid.ID) (string, error)

	// GetAlbumCover 获取不小于 size 的最小封面，size 为 0 表示原图
	GetAlbumCover(ctx context.Context, albumID catalogid.ID, size int) ([]byte, error)

	// LastModified 目录中最新文件的修改时间
	LastModified(ctx context.Context) (time.Time, error)

	// Stats 统计目录条目数
	Stats(ctx context.Context) (CatalogStats, error)
}

// CatalogStats 目录统计
type CatalogStats struct {
	Artists int64 `json:"artists"`
	Albums  int64 `json:"albums"`
	Songs   int64 `json:"songs"`
	Users   int64 `json:"users"`
}

// MaxRandomSongs caps getRandomSongs.
const MaxRandomSongs = 500

// CoverSizes is the ladder of stored renditions; 0 stands for the original.
var CoverSizes = []int{128, 256, 512, 1024, 0}

var coverColumns = []string{"cover128", "cover256", "cover512", "cover1024", "cover"}

const (
	albumColumns = "`id`, title, artistid, artist, hascover"
	songColumns  = "`id`, title, albumid, album, artistid, artist, " +
		"trackn, discn, year, duration, bitRate, genre, type, filename"
)

// SQLCatalogRepository 基于 database/sql 的目录仓库，支持 SQLite 和 MySQL
type SQLCatalogRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLCatalogRepository 创建目录仓库实例
func NewSQLCatalogRepository(db *sql.DB, dialect Dialect) *SQLCatalogRepository {
	return &SQLCatalogRepository{db: db, dialect: dialect}
}

func (r *SQLCatalogRepository) Dialect() Dialect { return r.dialect }

// nocase returns the ORDER BY collation suffix. MySQL's default collation is
// already case-insensitive.
func (r *SQLCatalogRepository) nocase() string {
	if r.dialect == DialectSQLite {
		return " COLLATE NOCASE"
	}
	return ""
}

func (r *SQLCatalogRepository) random() string {
	if r.dialect == DialectMySQL {
		return "RAND()"
	}
	return "RANDOM()"
}

func (r *SQLCatalogRepository) storedPassword(ctx context.Context, user string) (string, bool, error) {
	var pass sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT password FROM users WHERE username = ?", user).Scan(&pass)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query user %q: %w", user, err)
	}
	return pass.String, true, nil
}

// CheckCredential 校验明文密码（存储值可为明文或 bcrypt）
func (r *SQLCatalogRepository) CheckCredential(ctx context.Context, user, password string) (bool, error) {
	stored, ok, err := r.storedPassword(ctx, user)
	if err != nil || !ok {
		return false, err
	}
	return auth.MatchPassword(stored, password), nil
}

// CheckCredentialSalted 校验 t = md5(password + s)
func (r *SQLCatalogRepository) CheckCredentialSalted(ctx context.Context, user, token, salt string) (bool, error) {
	stored, ok, err := r.storedPassword(ctx, user)
	if err != nil || !ok {
		return false, err
	}
	return auth.MatchToken(stored, token, salt), nil
}

// GetAlbum 根据ID获取专辑
func (r *SQLCatalogRepository) GetAlbum(ctx context.Context, id catalogid.ID) (*model.Album, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+albumColumns+" FROM albums WHERE `id` = ?", int64(id))
	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album %s: %w", id, err)
	}
	return album, nil
}

// GetAlbumsByArtist 获取艺术家的所有专辑
func (r *SQLCatalogRepository) GetAlbumsByArtist(ctx context.Context, artistID catalogid.ID) ([]*model.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums WHERE artistid = ? ORDER BY `title`" + r.nocase() + " ASC"
	return r.queryAlbums(ctx, query, int64(artistID))
}

// GetAllAlbumsSorted 分页获取专辑
func (r *SQLCatalogRepository) GetAllAlbumsSorted(ctx context.Context, offset, limit int) ([]*model.Album, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*model.Album{}, nil
	}
	query := "SELECT " + albumColumns + " FROM albums ORDER BY `title`" + r.nocase() + " ASC LIMIT ? OFFSET ?"
	return r.queryAlbums(ctx, query, limit, offset)
}

func (r *SQLCatalogRepository) queryAlbums(ctx context.Context, query string, args ...any) ([]*model.Album, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	albums := make([]*model.Album, 0)
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// GetSongsByAlbum 获取专辑歌曲
func (r *SQLCatalogRepository) GetSongsByAlbum(ctx context.Context, albumID catalogid.ID) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE albumid = ? ORDER BY trackn, discn ASC"
	return r.querySongs(ctx, query, int64(albumID))
}

// GetSong 根据ID获取歌曲
func (r *SQLCatalogRepository) GetSong(ctx context.Context, id catalogid.ID) (*model.Song, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE `id` = ?", int64(id))
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song %s: %w", id, err)
	}
	return song, nil
}

// GetRandomSongs 随机歌曲
func (r *SQLCatalogRepository) GetRandomSongs(ctx context.Context, limit int) ([]*model.Song, error) {
	if limit <= 0 {
		return []*model.Song{}, nil
	}
	if limit > MaxRandomSongs {
		limit = MaxRandomSongs
	}
	query := "SELECT " + songColumns + " FROM songs ORDER BY " + r.random() + " LIMIT ?"
	return r.querySongs(ctx, query, limit)
}

func (r *SQLCatalogRepository) querySongs(ctx context.Context, query string, args ...any) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// GetArtists 获取全部艺术家
func (r *SQLCatalogRepository) GetArtists(ctx context.Context) ([]*model.Artist, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT `id`, `name` FROM artists ORDER BY `name`"+r.nocase()+" ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	artists := make([]*model.Artist, 0)
	for rows.Next() {
		var (
			id   int64
			name sql.NullString
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, &model.Artist{ID: catalogid.ID(id), Name: name.String})
	}
	return artists, rows.Err()
}

// GetSongFile 获取歌曲文件名
func (r *SQLCatalogRepository) GetSongFile(ctx context.Context, songID catalogid.ID) (string, error) {
	var filename sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT filename FROM songs WHERE `id` = ?", int64(songID)).Scan(&filename)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get filename of song %s: %w", songID, err)
	}
	return filename.String, nil
}

// CoverIndex 返回满足 size 的最小封面档位
func CoverIndex(size int) int {
	switch {
	case size <= 0 || size > 1024:
		return 4
	case size > 512:
		return 3
	case size > 256:
		return 2
	case size > 128:
		return 1
	default:
		return 0
	}
}

// GetAlbumCover 获取专辑封面，所选档位为空时依次尝试更大的档位
func (r *SQLCatalogRepository) GetAlbumCover(ctx context.Context, albumID catalogid.ID, size int) ([]byte, error) {
	covers := make([][]byte, len(coverColumns))
	dest := make([]any, len(coverColumns))
	for i := range covers {
		dest[i] = &covers[i]
	}
	query := "SELECT cover128, cover256, cover512, cover1024, cover FROM albums WHERE `id` = ?"
	err := r.db.QueryRowContext(ctx, query, int64(albumID)).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cover of album %s: %w", albumID, err)
	}
	for i := CoverIndex(size); i < len(covers); i++ {
		if len(covers[i]) > 0 {
			return covers[i], nil
		}
	}
	return nil, nil
}

// LastModified 最新歌曲文件的时间戳
func (r *SQLCatalogRepository) LastModified(ctx context.Context) (time.Time, error) {
	var ts sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(`timestamp`) FROM songs").Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("failed to query last modification: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0), nil
}

// Stats 统计目录条目数
func (r *SQLCatalogRepository) Stats(ctx context.Context) (CatalogStats, error) {
	var st CatalogStats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"artists", &st.Artists},
		{"albums", &st.Albums},
		{"songs", &st.Songs},
		{"users", &st.Users},
	}
	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return st, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(row rowScanner) (*model.Album, error) {
	var (
		id, artistID  int64
		title, artist sql.NullString
		hasCover      sql.NullInt64
	)
	if err := row.Scan(&id, &title, &artistID, &artist, &hasCover); err != nil {
		return nil, err
	}
	return &model.Album{
		ID:       catalogid.ID(id),
		Title:    title.String,
		ArtistID: catalogid.ID(artistID),
		Artist:   artist.String,
		HasCover: hasCover.Int64 != 0,
	}, nil
}

func scanSong(row rowScanner) (*model.Song, error) {
	var (
		id, albumID, artistID                   int64
		title, album, artist, genre, typ, fname sql.NullString
		track, disc, year, duration, bitRate    sql.NullInt64
	)
	err := row.Scan(&id, &title, &albumID, &album, &artistID, &artist,
		&track, &disc, &year, &duration, &bitRate, &genre, &typ, &fname)
	if err != nil {
		return nil, err
	}
	return &model.Song{
		ID:       catalogid.ID(id),
		Title:    title.String,
		AlbumID:  catalogid.ID(albumID),
		Album:    album.String,
		ArtistID: catalogid.ID(artistID),
		Artist:   artist.String,
		Track:    int(track.Int64),
		Disc:     int(disc.Int64),
		Year:     int(year.Int64),
		Duration: int(duration.Int64),
		BitRate:  int(bitRate.Int64),
		Genre:    genre.String,
		Suffix:   typ.String,
		Filename: fname.String,
	}, nil
}
