package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func InitLogger(logLevel string, encoding string) {
	lgr, err := buildConfig(logLevel, encoding).Build()
	if err != nil {
		panic(fmt.Errorf("构建日志器失败: %w", err))
	}

	zap.ReplaceGlobals(lgr)
}

// buildConfig 在开发配置的基础上调整级别与编码，无法识别的级别按 info 处理
func buildConfig(logLevel string, encoding string) zap.Config {
	cfg := zap.NewDevelopmentConfig()

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(level)

	// 部署时输出 json 方便采集
	if encoding == "json" {
		cfg.Encoding = "json"
		cfg.EncoderConfig = zap.NewProductionEncoderConfig()
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg
}
