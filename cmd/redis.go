package cmd

import (
	"context"
	"fmt"
	"time"

	"supersonic/cache"
	"supersonic/db"

	"github.com/spf13/cobra"
)

var redisPurge bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试封面缓存使用的 Redis 连接，并进行基本读写操作；--purge 清空所有缓存的封面。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST 未配置")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
		client, err := db.ConnectRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer client.Close()
		fmt.Println("Redis连接成功！")

		if err := db.CheckRedis(ctx, client); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if redisPurge {
			covers, err := cache.NewCoverCache(1, client, cfg.CoverCacheTTL)
			if err != nil {
				return err
			}
			if err := covers.Purge(ctx); err != nil {
				return err
			}
			fmt.Println("封面缓存已清空")
		}
		return nil
	},
}

func init() {
	redisCmd.Flags().BoolVar(&redisPurge, "purge", false, "delete every cached cover")
	rootCmd.AddCommand(redisCmd)
}
