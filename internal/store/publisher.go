package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Mode 导入模式
type Mode int

const (
	// ModeReset 从空库重建（默认）
	ModeReset Mode = iota
	// ModeAppend 在已发布库的副本上增量 upsert
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "reset"
}

// BuildFunc 在临时库上执行的构建过程
type BuildFunc func(ctx context.Context, st *Staging) error

// Publisher 临时库构建成功后用 rename 原子替换已发布库；失败时已发布库不受影响
type Publisher struct {
	dbPath  string
	tmpPath string
	log     *logrus.Logger
}

// NewPublisher tmpPath 为空时使用 <dbPath>.tmp（保证与目标在同一文件系统）
func NewPublisher(dbPath, tmpPath string, log *logrus.Logger) *Publisher {
	if tmpPath == "" {
		tmpPath = dbPath + ".tmp"
	}
	return &Publisher{dbPath: dbPath, tmpPath: tmpPath, log: log}
}

// DBPath 已发布库路径
func (p *Publisher) DBPath() string { return p.dbPath }

// Publish 准备临时库 → build → 关闭 → rename
func (p *Publisher) Publish(ctx context.Context, mode Mode, build BuildFunc) error {
	if err := os.MkdirAll(filepath.Dir(p.dbPath), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.tmpPath), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	// 上次中断留下的临时库
	if err := removeArtifacts(p.tmpPath); err != nil {
		return fmt.Errorf("清理旧临时库失败: %w", err)
	}

	published := false
	defer func() {
		if published {
			return
		}
		if rmErr := removeArtifacts(p.tmpPath); rmErr != nil {
			p.log.WithError(rmErr).WithField("path", p.tmpPath).Warn("删除临时库失败")
		}
	}()

	if mode == ModeAppend {
		if Exists(p.dbPath) {
			if err := copyFile(p.dbPath, p.tmpPath); err != nil {
				return fmt.Errorf("复制已发布库失败: %w", err)
			}
		} else {
			p.log.WithField("path", p.dbPath).Warn("已发布库不存在，追加模式从空库开始")
		}
	}

	db, err := open(p.tmpPath, false, p.log)
	if err != nil {
		return err
	}
	st := &Staging{db: db}

	if err := Migrate(ctx, db); err != nil {
		_ = closeDB(db)
		return err
	}
	if err := build(ctx, st); err != nil {
		_ = closeDB(db)
		return err
	}
	if err := closeDB(db); err != nil {
		return fmt.Errorf("关闭临时库失败: %w", err)
	}

	if err := os.Rename(p.tmpPath, p.dbPath); err != nil {
		return fmt.Errorf("替换已发布库失败: %w", err)
	}
	published = true
	p.log.WithFields(logrus.Fields{"path": p.dbPath, "mode": mode.String()}).Info("数据库已发布")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
