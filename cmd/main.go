package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"OwaraiArchive/internal/config"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(code)
	}
}

// newLogger 按配置初始化日志（输出到 stderr，stdout 留给导入结果）
func newLogger(c config.LogConfig) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if c.Level != "" {
		lv, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("日志级别无效: %w", err)
		}
		level = lv
	}
	l.SetLevel(level)

	switch c.Format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("日志格式无效: %s（text/json）", c.Format)
	}
	return l, nil
}

// setup 加载配置并初始化日志，失败视为用法错误
func setup(configPath string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, withCode(exitUsage, err)
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, withCode(exitUsage, err)
	}
	log.Debug("配置文件加载成功")
	return cfg, log, nil
}
