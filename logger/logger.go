package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// LogLevel 日志级别，取值同 LOG_LEVEL
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// zapLevel 无法识别的级别按 debug 处理
func (l LogLevel) zapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(string(l))
	if err != nil {
		return zapcore.DebugLevel
	}
	return lvl
}

// Config 日志配置。OutputPath 为空时只写 stderr。
type Config struct {
	Level      LogLevel
	OutputPath string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
	Console    bool // stderr 使用人类可读格式，默认 JSON
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.RFC3339TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	return ec
}

// cores stderr 总是输出（stdout 留给 CLI 子命令的结果），文件输出经 lumberjack 轮转
func cores(config Config) ([]zapcore.Core, error) {
	level := config.Level.zapLevel()
	ec := encoderConfig()

	stderrEnc := zapcore.NewJSONEncoder(ec)
	if config.Console {
		stderrEnc = zapcore.NewConsoleEncoder(ec)
	}
	out := []zapcore.Core{zapcore.NewCore(stderrEnc, zapcore.Lock(os.Stderr), level)}

	if config.OutputPath == "" {
		return out, nil
	}
	if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	rotated := &lumberjack.Logger{
		Filename:   config.OutputPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
	return append(out, zapcore.NewCore(zapcore.NewJSONEncoder(ec), zapcore.AddSync(rotated), level)), nil
}

// InitLogger 初始化全局 logger，只有第一次调用生效。
// 日志目录无法创建时退回只写 stderr。
func InitLogger(config Config) {
	once.Do(func() {
		cs, err := cores(config)
		if err != nil {
			fmt.Fprintln(os.Stderr, "logger:", err)
			config.OutputPath = ""
			cs, _ = cores(config)
		}
		globalLogger = zap.New(zapcore.NewTee(cs...),
			zap.AddCaller(),
			zap.AddCallerSkip(1),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	})
}

func Debug(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Error(msg, fields...)
	}
}

// Fatal 记录后退出进程；未初始化时直接写 stderr 再退出
func Fatal(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Fatal(msg, fields...)
	}
	fmt.Fprintln(os.Stderr, "fatal:", msg)
	os.Exit(1)
}

// With 返回带固定字段的子 logger，用于关联同一请求的日志。
// 未初始化时返回 no-op logger。
func With(fields ...zap.Field) *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger.WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

// Sync 刷新缓冲的日志
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// 字段辅助函数

func String(key string, val string) zap.Field { return zap.String(key, val) }
func Int(key string, val int) zap.Field { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field { return zap.Int64(key, val) }
func Uint64(key string, val uint64) zap.Field { return zap.Uint64(key, val) }
func Bool(key string, val bool) zap.Field { return zap.Bool(key, val) }
func Any(key string, val interface{}) zap.Field { return zap.Any(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

// ErrorField 错误字段，键名为 "error"
func ErrorField(err error) zap.Field { return zap.Error(err) }
