package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init 初始化全局日志
// service: 服务名，作为固定字段写入每条日志
// level: debug, info, warn, error
// format: json（默认）或 console
func Init(service, level, format string) error {
	l, err := New(service, level, format)
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

// New 构建一个 zap.Logger，不修改全局实例
func New(service, level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	var encoder zapcore.Encoder
	if format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapLevel)
	// AddCallerSkip(1): 跳过本包的封装函数
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	if service != "" {
		l = l.With(zap.String("service", service))
	}
	return l, nil
}

// Set 替换全局实例（测试中可注入 zaptest/observer）
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// L 返回全局实例
func L() *zap.Logger { return global.Load() }

func Debug(msg string, fields ...zap.Field) { global.Load().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { global.Load().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { global.Load().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { global.Load().Error(msg, fields...) }

// Fatal 记录后调用 os.Exit
func Fatal(msg string, fields ...zap.Field) { global.Load().Fatal(msg, fields...) }

// Sync 刷新缓冲区（main 中 defer 调用）
func Sync() { _ = global.Load().Sync() }
