package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/fcgi"
	"os"
	"strings"
	"sync"
	"time"

	"supersonic/core/queue"
	"supersonic/logger"

	"github.com/gorilla/mux"
)

const (
	TransportHTTP = "http"
	TransportFCGI = "fcgi"
)

// Acceptor 接收连接，把请求放入队列并等待 worker 写完响应
type Acceptor struct {
	transport string
	queue     *queue.Queue[*Request]
	metrics   *Metrics
	router    *mux.Router

	mu       sync.RWMutex // closing 与 inflight.Add 互斥
	closing  bool
	inflight sync.WaitGroup

	listener net.Listener
	httpSrv  *http.Server
}

func NewAcceptor(transport string, q *queue.Queue[*Request], metrics *Metrics) *Acceptor {
	a := &Acceptor{transport: transport, queue: q, metrics: metrics}

	router := mux.NewRouter()
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet, http.MethodHead)
	// 其余所有路径（包括不支持的方法）都交给 worker，由分发器决定响应
	router.PathPrefix("/").Handler(http.HandlerFunc(a.enqueue))
	a.router = router
	return a
}

func (a *Acceptor) Handler() http.Handler { return a.router }

func (a *Acceptor) healthz(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	closing := a.closing
	a.mu.RUnlock()
	if closing {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "ok queue=%d/%d\n", a.queue.Len(), a.queue.Cap())
}

func (a *Acceptor) admit() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closing {
		return false
	}
	a.inflight.Add(1)
	return true
}

// enqueue hands the request to the worker pool and blocks until the
// response has been written. Push applies backpressure when the queue is
// full.
func (a *Acceptor) enqueue(w http.ResponseWriter, r *http.Request) {
	if !a.admit() {
		a.metrics.refused()
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	defer a.inflight.Done()

	req := NewRequest(w, r)
	if !a.queue.TryPush(req) {
		// 队列已满，阻塞等待空位
		if !a.queue.Closed() {
			a.metrics.queueWaited()
		}
		if err := a.queue.Push(req); err != nil {
			a.metrics.refused()
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	<-req.Done()
}

// Listen opens the listening socket. "unix:/path" selects a unix socket,
// which is the usual way to run behind a FastCGI front end.
func Listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		_ = os.Remove(path)
		l, err := net.Listen("unix", path)
		if err != nil {
			return nil, fmt.Errorf("listen on unix socket %s: %w", path, err)
		}
		return l, nil
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return l, nil
}

// Serve accepts connections on l until Shutdown. It returns nil after a
// clean shutdown.
func (a *Acceptor) Serve(l net.Listener) error {
	a.mu.Lock()
	if a.closing {
		a.mu.Unlock()
		return l.Close()
	}
	a.listener = l
	if a.transport != TransportFCGI {
		// 流媒体响应可能持续很久，不设置 WriteTimeout
		a.httpSrv = &http.Server{
			Handler:           a.router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
	}
	srv := a.httpSrv
	a.mu.Unlock()

	logger.Info("开始接收请求",
		logger.String("transport", a.transport),
		logger.String("addr", l.Addr().String()))

	var err error
	if srv != nil {
		err = srv.Serve(l)
	} else {
		err = fcgi.Serve(l, a.router)
	}
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Shutdown stops admitting requests and waits for the in-flight ones,
// including those still queued, until ctx expires.
func (a *Acceptor) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.closing = true
	l, srv := a.listener, a.httpSrv
	a.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	} else if l != nil {
		err = l.Close()
	}

	drained := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight requests: %w", ctx.Err())
	}
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}
