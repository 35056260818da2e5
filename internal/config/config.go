package config

import (
	"errors"
	"fmt"
	"os"

	"OwaraiArchive/internal/schema"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Paths   PathsConfig      `mapstructure:"paths"`   // 输入输出路径
	Import  ImportConfig     `mapstructure:"import"`  // 导入参数
	Log     LogConfig        `mapstructure:"log"`     // 日志
	Server  ServerConfig     `mapstructure:"server"`  // 只读查询服务
	Columns schema.Overrides `mapstructure:"columns"` // 追加列显示设定（覆盖内置表）
}

// PathsConfig 路径配置
type PathsConfig struct {
	SeedDir string `mapstructure:"seed_dir"` // 种子CSV目录
	DBPath  string `mapstructure:"db_path"`  // 发布的SQLite文件
	TmpPath string `mapstructure:"tmp_path"` // 临时库，空则为 <db_path>.tmp（必须与 db_path 同一文件系统）
}

// ImportConfig 导入配置
type ImportConfig struct {
	RankTable string `mapstructure:"rank_table"` // 名次表版本：v1/v2，空为最新
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.seed_dir", "seed_csv")
	v.SetDefault("paths.db_path", "data/awards.sqlite")
	v.SetDefault("paths.tmp_path", "")
	v.SetDefault("import.rank_table", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
}

// LoadConfig 加载配置文件。path 为空时读取 ./config/config.yaml，文件不存在则全部使用默认值；
// .env 与环境变量覆盖文件中的路径和日志级别。
func LoadConfig(path string) (*Config, error) {
	// 1. 加载 .env（若存在）
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("ARCHIVE_SEED_DIR"); v != "" {
		cfg.Paths.SeedDir = v
	}
	if v := os.Getenv("ARCHIVE_DB_PATH"); v != "" {
		cfg.Paths.DBPath = v
	}
	if v := os.Getenv("ARCHIVE_TMP_PATH"); v != "" {
		cfg.Paths.TmpPath = v
	}
	if v := os.Getenv("ARCHIVE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ARCHIVE_RANK_TABLE"); v != "" {
		cfg.Import.RankTable = v
	}
}

// Overrides 内置列设定叠加配置文件中的 columns:
func (c *Config) Overrides() schema.Overrides {
	return schema.DefaultOverrides().Merge(c.Columns)
}
