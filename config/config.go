package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 校验配置（Token 由外部身份服务签发）
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"` // 为空则只输出到 stderr
}

// PeriodConfig 单个课节的起止时间（HH:MM）
type PeriodConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// ScheduleConfig 课表编排与导出配置
type ScheduleConfig struct {
	Periods      []PeriodConfig `mapstructure:"periods"`
	OutputDir    string         `mapstructure:"output_dir"`
	PDFFontPath  string         `mapstructure:"pdf_font_path"` // 覆盖中文与西里尔字符的 TTF，如 NotoSansCJK
	ViewCacheTTL time.Duration  `mapstructure:"view_cache_ttl"`
	PublishLock  time.Duration  `mapstructure:"publish_lock_ttl"`
	Timezone     string         `mapstructure:"timezone"` // ICS 导出时课节时间所在时区
}

// DefaultPeriods 标准 8 节课时间表
var DefaultPeriods = []PeriodConfig{
	{Start: "08:00", End: "08:45"},
	{Start: "08:50", End: "09:35"},
	{Start: "09:40", End: "10:25"},
	{Start: "10:30", End: "11:15"},
	{Start: "11:20", End: "12:05"},
	{Start: "12:10", End: "12:55"},
	{Start: "13:00", End: "13:45"},
	{Start: "14:00", End: "14:45"},
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// DefaultOutputDir 用户文档目录下的课表子目录
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "课表")
	}
	return filepath.Join(home, "Documents", "课表")
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "school_manager")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.issuer", "school-manager")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("schedule.periods", periodsAsMaps(DefaultPeriods))
	v.SetDefault("schedule.output_dir", DefaultOutputDir())
	v.SetDefault("schedule.pdf_font_path", "")
	v.SetDefault("schedule.view_cache_ttl", "10m")
	v.SetDefault("schedule.publish_lock_ttl", "1m")
	v.SetDefault("schedule.timezone", "Asia/Shanghai")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SCHOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	return c.Schedule.Validate()
}

// Validate 校验课节时间表
func (s *ScheduleConfig) Validate() error {
	if len(s.Periods) != 8 {
		return fmt.Errorf("配置校验失败: schedule.periods 必须恰好包含 8 个课节，实际 %d", len(s.Periods))
	}
	for i, p := range s.Periods {
		if !clockPattern.MatchString(p.Start) || !clockPattern.MatchString(p.End) {
			return fmt.Errorf("配置校验失败: 第 %d 节时间格式无效 (%s-%s)", i+1, p.Start, p.End)
		}
		if p.End <= p.Start {
			return fmt.Errorf("配置校验失败: 第 %d 节结束时间必须晚于开始时间", i+1)
		}
	}
	if s.OutputDir == "" {
		return fmt.Errorf("配置校验失败: schedule.output_dir 不能为空")
	}
	if err := checkFontFile(s.PDFFontPath); err != nil {
		return err
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("配置校验失败: schedule.timezone 无效: %w", err)
		}
	}
	return nil
}

// checkFontFile 发布时必须生成 PDF，字体缺失要在启动时暴露
func checkFontFile(path string) error {
	if path == "" {
		return fmt.Errorf("配置校验失败: schedule.pdf_font_path 不能为空")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("配置校验失败: schedule.pdf_font_path 不可读: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("配置校验失败: schedule.pdf_font_path 不可读: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("配置校验失败: schedule.pdf_font_path 不是字体文件: %s", path)
	}
	return nil
}

func periodsAsMaps(periods []PeriodConfig) []map[string]string {
	out := make([]map[string]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, map[string]string{"start": p.Start, "end": p.End})
	}
	return out
}
