package cmd

import (
	"context"
	"fmt"
	"time"

	"supersonic/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioStats     bool
	minioAudioOnly bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO媒体存储桶查看",
	Long:  `列出 MinIO 媒体源中的文件或统计信息，用于确认目录里的相对路径在存储桶中可以找到。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT 未配置")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		client, err := storage.NewMinioClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		objects, stats, err := storage.ListMedia(ctx, client, cfg.MinioBucket, minioPrefix)
		if err != nil {
			return err
		}

		if !minioStats {
			for _, obj := range objects {
				if minioAudioOnly && !obj.Audio {
					continue
				}
				fmt.Printf("%-10s %s  %s\n", storage.FormatSize(obj.Size),
					obj.LastModified.Format("2006-01-02 15:04"), obj.Key)
			}
			fmt.Println()
		}
		fmt.Printf("对象总数: %d\n", stats.TotalObjects)
		fmt.Printf("音频文件: %d\n", stats.AudioObjects)
		fmt.Printf("总大小:   %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("最后修改: %s\n", stats.LastModified.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "只列出该前缀下的对象")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示统计信息")
	minioCmd.Flags().BoolVarP(&minioAudioOnly, "audio", "a", false, "只列出音频文件")
	rootCmd.AddCommand(minioCmd)
}
