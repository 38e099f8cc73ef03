package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"supersonic/core/queue"
	"supersonic/core/stream"
	"supersonic/logger"

	"go.uber.org/zap"
)

// WorkerPool 固定数量的 worker，从队列取请求、处理并写回响应
type WorkerPool struct {
	size    int
	queue   *queue.Queue[*Request]
	handler *APIHandler
	metrics *Metrics
	wg      sync.WaitGroup
}

func NewWorkerPool(size int, q *queue.Queue[*Request], handler *APIHandler, metrics *Metrics) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{size: size, queue: q, handler: handler, metrics: metrics}
}

// Start launches the workers. They exit once the queue is closed and drained.
func (p *WorkerPool) Start() {
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.work(i)
	}
	logger.Info("worker 已启动", logger.Int("workers", p.size))
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) work(n int) {
	defer p.wg.Done()
	for {
		req, ok := p.queue.Pop()
		if !ok {
			logger.Debug("worker 退出", logger.Int("worker", n))
			return
		}
		p.process(req)
	}
}

func (p *WorkerPool) process(req *Request) {
	defer req.finish()

	resp := p.dispatch(req)
	status := resp.Header().Status
	written, err := deliver(req.w, req.Method, resp)
	elapsed := time.Since(req.Received)

	op := p.handler.metricOp(req.Path)
	p.metrics.observe(op, status, elapsed, written)

	fields := []zap.Field{
		zap.String("requestId", req.ID),
		zap.String("method", req.Method),
		zap.String("op", op),
		zap.String("path", req.Path),
		zap.Int("status", status),
		zap.Int64("bytes", written),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		logger.Error("响应写出中断", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("请求完成", fields...)
}

// dispatch runs the handler, turning a panic into a 500 so the worker
// survives.
func (p *WorkerPool) dispatch(req *Request) (resp stream.Responder) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.panicked()
			logger.Error("处理请求时发生 panic",
				zap.String("requestId", req.ID),
				zap.String("path", req.Path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			resp = stream.InternalError()
		}
	}()
	return p.handler.Handle(req)
}

// deliver writes the header, then pulls chunks until the responder is done
// or the client stops reading. HEAD requests get the header only. The
// responder is always closed.
func deliver(w http.ResponseWriter, method string, resp stream.Responder) (int64, error) {
	defer resp.Close()

	h := resp.Header()
	dst := w.Header()
	for key, values := range h.Fields {
		dst[key] = values
	}
	if h.ContentType != "" {
		dst.Set("Content-Type", h.ContentType)
	}
	dst.Set("Content-Length", strconv.FormatInt(h.ContentLength, 10))
	w.WriteHeader(h.Status)

	if method == http.MethodHead {
		return 0, nil
	}

	var written int64
	for {
		chunk, err := resp.Next()
		if err != nil {
			return written, err
		}
		if len(chunk) == 0 {
			return written, nil
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write to client: %w", err)
		}
	}
}
