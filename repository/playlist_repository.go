package repository

import (
	"context"
	"errors"

	"supersonic/model"

	"gorm.io/gorm"
)

// PlaylistRepository 歌单数据访问接口（只读）
type PlaylistRepository interface {
	// GetPlaylist 根据ID获取歌单，不存在返回 (nil, nil)
	GetPlaylist(ctx context.Context, id int64) (*model.Playlist, error)
	// GetPlaylists 获取用户拥有的歌单
	GetPlaylists(ctx context.Context, user string) ([]*model.Playlist, error)
}

// gormPlaylistRepository GORM 实现
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository 创建 GORM 歌单仓库
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// GetPlaylist 根据ID获取歌单
func (r *gormPlaylistRepository) GetPlaylist(ctx context.Context, id int64) (*model.Playlist, error) {
	var pl model.Playlist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pl, nil
}

// GetPlaylists 获取用户歌单
func (r *gormPlaylistRepository) GetPlaylists(ctx context.Context, user string) ([]*model.Playlist, error) {
	var pls []*model.Playlist
	err := r.db.WithContext(ctx).
		Where("`user` = ?", user).
		Order("id ASC").
		Find(&pls).Error
	return pls, err
}

// emptyPlaylistRepository 未配置用户数据库时使用
type emptyPlaylistRepository struct{}

// NewEmptyPlaylistRepository returns a store with no playlists.
func NewEmptyPlaylistRepository() PlaylistRepository {
	return emptyPlaylistRepository{}
}

func (emptyPlaylistRepository) GetPlaylist(context.Context, int64) (*model.Playlist, error) {
	return nil, nil
}

func (emptyPlaylistRepository) GetPlaylists(context.Context, string) ([]*model.Playlist, error) {
	return []*model.Playlist{}, nil
}
