package model

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"time"

	"supersonic/core/catalogid"
)

// SongIDList 歌单中的歌曲，数据库里存成连续的 8 字节大端 ID
type SongIDList []catalogid.ID

// Scan 实现 sql.Scanner 接口
func (l *SongIDList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported song list type %T", value)
	}
	ids := make(SongIDList, 0, len(data)/8)
	for i := 0; i+8 <= len(data); i += 8 {
		ids = append(ids, catalogid.ID(binary.BigEndian.Uint64(data[i:])))
	}
	*l = ids
	return nil
}

// Value 实现 driver.Valuer 接口
func (l SongIDList) Value() (driver.Value, error) {
	data := make([]byte, 8*len(l))
	for i, id := range l {
		binary.BigEndian.PutUint64(data[i*8:], uint64(id))
	}
	return data, nil
}

// Playlist 用户歌单
type Playlist struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	User      string     `json:"owner" gorm:"size:100;index;not null"`
	Name      string     `json:"name" gorm:"size:255"`
	Comment   string     `json:"comment" gorm:"size:1024"`
	Public    bool       `json:"public" gorm:"default:false"`
	Songs     SongIDList `json:"-" gorm:"type:blob"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt time.Time  `json:"changed"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// VisibleTo reports whether user may read the playlist.
func (p *Playlist) VisibleTo(user string) bool {
	return p.Public || p.User == user
}
