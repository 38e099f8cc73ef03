package cmd

import (
	"context"
	"fmt"
	"time"

	"supersonic/core/auth"
	"supersonic/db"
	"supersonic/logger"
	"supersonic/model"
	"supersonic/repository"

	"github.com/spf13/cobra"
)

var (
	catalogDB    string
	adduserPlain bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "目录数据库管理",
	Long:  `查看目录数据库统计、初始化空目录、添加或更新用户`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCmd.PersistentPreRun(cmd, args)
		if cmd.Flags().Changed("musicdb") {
			cfg.CatalogDSN = catalogDB
		}
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print catalog counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		conn, dialect, err := db.ConnectCatalog(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer conn.Close()
		repo := repository.NewSQLCatalogRepository(conn, dialect)

		stats, err := repo.Stats(ctx)
		if err != nil {
			return err
		}
		modified, err := repo.LastModified(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("catalog:  %s (%s)\n", cfg.CatalogDSN, dialect)
		fmt.Printf("artists:  %d\n", stats.Artists)
		fmt.Printf("albums:   %d\n", stats.Albums)
		fmt.Printf("songs:    %d\n", stats.Songs)
		fmt.Printf("users:    %d\n", stats.Users)
		if !modified.IsZero() {
			fmt.Printf("modified: %s\n", modified.Format(time.RFC3339))
		}
		return nil
	},
}

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		conn, dialect, err := db.ConnectCatalog(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := repository.CreateCatalogSchema(ctx, conn, dialect); err != nil {
			return err
		}
		logger.Info("目录表结构已创建", logger.String("dialect", string(dialect)))
		return nil
	},
}

var catalogAddUserCmd = &cobra.Command{
	Use:   "adduser USERNAME PASSWORD",
	Short: "Add or replace a user",
	Long: `Adds a user to the catalog. The password is stored as a bcrypt hash
unless --plain is given; salted token login (s/t parameters) needs the
cleartext form.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		password := args[1]
		if !adduserPlain {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			password = hash
		}

		conn, dialect, err := db.ConnectCatalog(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := repository.UpsertUser(ctx, conn, dialect, model.User{Username: args[0], Password: password}); err != nil {
			return err
		}
		fmt.Printf("user %q saved (bcrypt=%v)\n", args[0], !adduserPlain)
		return nil
	},
}

func init() {
	catalogCmd.PersistentFlags().StringVarP(&catalogDB, "musicdb", "m", "", "catalog database (sqlite file or MySQL DSN)")
	catalogAddUserCmd.Flags().BoolVar(&adduserPlain, "plain", false, "store the password in cleartext")
	catalogCmd.AddCommand(catalogStatsCmd, catalogInitCmd, catalogAddUserCmd)
	rootCmd.AddCommand(catalogCmd)
}
