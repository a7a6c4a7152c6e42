package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var once sync.Once

// Init 初始化全局 zap logger，之后统一通过 zap.L() 使用
func Init(debug bool) {
	once.Do(func() {
		var cfg zap.Config
		if debug {
			cfg = zap.NewDevelopmentConfig()
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		logger, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		zap.ReplaceGlobals(logger)
	})
}
