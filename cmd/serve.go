package cmd

import (
	"supersonic/config"
	"supersonic/logger"
	"supersonic/server"

	"github.com/spf13/cobra"
)

// serveFlags 命令行参数，优先于环境变量
type serveFlags struct {
	musicDB    string
	userDB     string
	threads    int
	searchDirs []string
	listen     string
	transport  string
}

var flags serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 Supersonic 服务器",
	Long:  `打开目录数据库，启动 worker 池并通过 HTTP 或 FastCGI 提供 Subsonic 接口，直到收到 SIGINT/SIGTERM`,
	Run:   runServe,
}

func (s *serveFlags) bind(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&s.musicDB, "musicdb", "m", "", "catalog database (sqlite file or MySQL DSN)")
	f.StringVarP(&s.userDB, "userdb", "u", "", "user data DSN for playlists (MySQL)")
	f.IntVarP(&s.threads, "threads", "t", 0, "number of workers")
	f.StringArrayVarP(&s.searchDirs, "search-dir", "d", nil, "directory searched for relative song paths (repeatable)")
	f.StringVar(&s.listen, "listen", "", "listen address, unix:/path for a unix socket")
	f.StringVar(&s.transport, "transport", "", "http or fcgi")
}

// apply overrides cfg with every flag that was set.
func (s *serveFlags) apply(c *cobra.Command, cfg *config.Config) {
	f := c.Flags()
	if f.Changed("musicdb") {
		cfg.CatalogDSN = s.musicDB
	}
	if f.Changed("userdb") {
		cfg.UserDBDSN = s.userDB
	}
	if f.Changed("threads") {
		cfg.Workers = s.threads
	}
	if f.Changed("search-dir") {
		cfg.SearchDirs = s.searchDirs
	}
	if f.Changed("listen") {
		cfg.ListenAddr = s.listen
	}
	if f.Changed("transport") {
		cfg.Transport = s.transport
	}
}

func runServe(cmd *cobra.Command, args []string) {
	flags.apply(cmd, cfg)
	cfg.Normalize()
	if cfg.Transport != server.TransportHTTP && cfg.Transport != server.TransportFCGI {
		logger.Fatal("未知的传输方式", logger.String("transport", cfg.Transport))
	}

	logger.Info("启动 Supersonic",
		logger.String("listen", cfg.ListenAddr),
		logger.String("transport", cfg.Transport),
		logger.String("catalog", cfg.CatalogDriver),
		logger.Int("workers", cfg.Workers),
		logger.Int("queueSize", cfg.QueueSize),
		logger.Any("searchDirs", cfg.SearchDirs))

	if err := server.Start(cfg); err != nil {
		logger.Fatal("服务器启动失败", logger.ErrorField(err))
	}
}

func init() {
	flags.bind(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
