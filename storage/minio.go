package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supersonic/config"
	"supersonic/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinioClient 创建 MinIO 客户端并确认媒体存储桶存在
func NewMinioClient(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("存储桶 %s 不存在", cfg.MinioBucket)
	}

	logger.Info("MinIO 客户端初始化成功",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return client, nil
}

// MinioSource opens media objects from a bucket. The catalog filename is
// used as the object key with any leading slash removed.
type MinioSource struct {
	client *minio.Client
	bucket string
}

func NewMinioSource(client *minio.Client, bucket string) *MinioSource {
	return &MinioSource{client: client, bucket: bucket}
}

func (s *MinioSource) Open(ctx context.Context, name string) (*Media, error) {
	key := strings.TrimLeft(name, "/")
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	// *minio.Object implements Read, Seek and Close; data is fetched lazily
	// per range so seeking to the requested start is cheap.
	return &Media{File: obj, Size: info.Size, Name: key}, nil
}

func (s *MinioSource) String() string {
	return "minio(" + s.bucket + ")"
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
