package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"supersonic/cache"
	"supersonic/config"
	"supersonic/core/queue"
	"supersonic/db"
	"supersonic/logger"
	"supersonic/repository"
	"supersonic/storage"
)

// Server 串起 acceptor、队列和 worker 池
type Server struct {
	cfg      *config.Config
	queue    *queue.Queue[*Request]
	pool     *WorkerPool
	acceptor *Acceptor
	metrics  *Metrics
}

// New builds a server around already opened collaborators. covers may be
// nil; it is only used for metrics.
func New(cfg *config.Config, catalog repository.CatalogRepository, playlists repository.PlaylistRepository,
	media storage.Source, covers *cache.CoverCache) *Server {
	cfg.Normalize()
	q := queue.New[*Request](cfg.QueueSize)
	metrics := NewMetrics(q, covers)
	handler := NewAPIHandler(catalog, playlists, media, metrics)
	return &Server{
		cfg:      cfg,
		queue:    q,
		pool:     NewWorkerPool(cfg.Workers, q, handler, metrics),
		acceptor: NewAcceptor(cfg.Transport, q, metrics),
		metrics:  metrics,
	}
}

func (s *Server) Acceptor() *Acceptor { return s.acceptor }
func (s *Server) Metrics() *Metrics   { return s.metrics }

// Run serves l until ctx is cancelled, then shuts down in order: stop
// admitting, close the queue, let the workers drain it.
func (s *Server) Run(ctx context.Context, l net.Listener) error {
	s.pool.Start()

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.acceptor.Serve(l) }()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("收到退出信号，开始关闭服务")
	case runErr = <-serveErr:
		if runErr != nil {
			logger.Error("acceptor 异常退出", logger.ErrorField(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.acceptor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("acceptor 关闭超时", logger.ErrorField(err))
	}

	// 关闭队列后 worker 处理完剩余请求自行退出
	s.queue.Close()
	s.pool.Wait()
	logger.Info("所有 worker 已退出", logger.Uint64("served", s.queue.Pushed()))
	return runErr
}

// Start opens every configured backend, serves until SIGINT or SIGTERM and
// closes the backends once the workers are gone.
func Start(cfg *config.Config) error {
	cfg.Normalize()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// 客户端断开不能杀死进程
	signal.Ignore(syscall.SIGPIPE)

	catalogDB, dialect, err := db.ConnectCatalog(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalogDB.Close()
	logger.Info("目录数据库已连接",
		logger.String("driver", cfg.CatalogDriver),
		logger.String("dialect", string(dialect)))

	var playlists repository.PlaylistRepository
	if cfg.UserDBDSN != "" {
		userDB, err := db.ConnectUserDB(cfg.UserDBDSN)
		if err != nil {
			return fmt.Errorf("open user database: %w", err)
		}
		defer db.CloseUserDB(userDB)
		playlists = repository.NewGormPlaylistRepository(userDB)
	} else {
		logger.Warn("未配置用户数据库，歌单接口将返回空结果")
		playlists = repository.NewEmptyPlaylistRepository()
	}

	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		// 封面缓存降级为仅本地 LRU
		logger.Warn("Redis 不可用，仅使用本地封面缓存", logger.ErrorField(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}
	covers, err := cache.NewCoverCache(cfg.CoverCacheSize, rdb, cfg.CoverCacheTTL)
	if err != nil {
		return err
	}
	catalog := cache.NewCachedCatalog(repository.NewSQLCatalogRepository(catalogDB, dialect), covers)

	if dialect == repository.DialectSQLite {
		watcher, err := cache.NewCatalogWatcher(cfg.CatalogDSN, cache.DefaultSettle, func(ctx context.Context) {
			if err := covers.Purge(ctx); err != nil {
				logger.Warn("清空封面缓存失败", logger.ErrorField(err))
			}
		})
		if err != nil {
			logger.Warn("无法监听目录数据库变化", logger.ErrorField(err))
		} else {
			go watcher.Run(ctx)
			defer watcher.Close()
		}
	}

	media, err := openMedia(ctx, cfg)
	if err != nil {
		return err
	}

	l, err := Listen(cfg.ListenAddr)
	if err != nil {
		return err
	}

	srv := New(cfg, catalog, playlists, media, covers)
	if err := srv.Run(ctx, l); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("服务已停止，关闭数据库连接")
	return nil
}

// openMedia chains the local search directories with the MinIO bucket when
// one is configured.
func openMedia(ctx context.Context, cfg *config.Config) (storage.Source, error) {
	chain := storage.Chain{storage.NewLocalSource(cfg.SearchDirs)}
	if cfg.MinioEndpoint == "" {
		return chain, nil
	}
	client, err := storage.NewMinioClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init MinIO media source: %w", err)
	}
	logger.Info("MinIO 媒体源已启用",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return append(chain, storage.NewMinioSource(client, cfg.MinioBucket)), nil
}
