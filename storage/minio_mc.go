package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"

	"supersonic/model"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	AudioObjects int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	Audio        bool
}

// ListMedia 列出存储桶中 prefix 下的对象并统计
func ListMedia(ctx context.Context, client *minio.Client, bucket, prefix string) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		info := ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			Audio:        IsAudio(object.Key),
		}
		objects = append(objects, info)

		stats.TotalObjects++
		stats.TotalSize += object.Size
		if info.Audio {
			stats.AudioObjects++
		}
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
	}
	return objects, stats, nil
}

// IsAudio 扩展名是否属于目录中可播放的格式
func IsAudio(name string) bool {
	return model.ContentTypeOf(path.Ext(name)) != ""
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
