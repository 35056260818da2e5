// Package store 持有 SQLite 库文件的句柄。
// Staging（正在构建、可写）与 Published（已发布、只读）是不同的类型，
// 查询层只接受 Published，导入流程只接受 Staging。
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // 纯 Go 的 SQLite 驱动，注册名为 "sqlite"
)

// DriverName modernc.org/sqlite 注册的驱动名
const DriverName = "sqlite"

// Staging 导入中的临时库
type Staging struct {
	db *gorm.DB
}

// DB 底层连接
func (s *Staging) DB() *gorm.DB { return s.db }

// Published 已发布的只读库
type Published struct {
	db   *gorm.DB
	path string
}

// DB 底层连接
func (p *Published) DB() *gorm.DB { return p.db }

// Path 库文件路径
func (p *Published) Path() string { return p.path }

// Close 关闭连接
func (p *Published) Close() error { return closeDB(p.db) }

// DSN 生成 modernc 驱动的连接串
func DSN(path string, readOnly bool) string {
	if readOnly {
		return "file:" + path + "?mode=ro&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(DELETE)&_pragma=synchronous(FULL)"
}

// GormLogger 把 gorm 日志接到 logrus（只输出慢查询和错误）
func GormLogger(log *logrus.Logger) logger.Interface {
	return logger.New(log, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func open(path string, readOnly bool, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: DriverName,
		DSN:        DSN(path, readOnly),
	}), &gorm.Config{
		Logger:                                   GormLogger(log),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库%s失败: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if !readOnly {
		// 单连接：导入是单线程批处理
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenPublished 以只读方式打开已发布的库
func OpenPublished(path string, log *logrus.Logger) (*Published, error) {
	if !Exists(path) {
		return nil, fmt.Errorf("数据库文件不存在: %s: %w", path, fs.ErrNotExist)
	}
	db, err := open(path, true, log)
	if err != nil {
		return nil, err
	}
	return &Published{db: db, path: path}, nil
}

// Exists 文件是否存在
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Migrate 按 schemaDDL 的顺序建表（不经过 AutoMigrate），sqlite_master 内容固定
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range schemaDDL {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("数据库表结构迁移失败: %w", err)
			}
		}
		return nil
	})
}

func removeArtifacts(path string) error {
	var errs []error
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
