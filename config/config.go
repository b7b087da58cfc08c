package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OSS       OSSConfig       `mapstructure:"oss"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Email     EmailConfig     `mapstructure:"email"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Subscribe SubscribeConfig `mapstructure:"subscribe"`
	Register  RegisterConfig  `mapstructure:"register"`
	Redeem    RedeemConfig    `mapstructure:"redeem"`
	Cron      CronConfig      `mapstructure:"cron"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql | postgres | sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	DSN          string `mapstructure:"dsn"` // 非空时直接使用
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type OAuthConfig struct {
	Github GithubOAuthConfig `mapstructure:"github"`
}

type GithubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	FrontendURL  string `mapstructure:"frontend_url"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	SiteName string `mapstructure:"site_name"`
}

type QueueConfig struct {
	NotifyQueue string `mapstructure:"notify_queue"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// SubscribeConfig 订阅链接相关
type SubscribeConfig struct {
	BaseURL             string `mapstructure:"base_url"`   // 对外订阅地址前缀，如 https://panel.example.com
	GroupName           string `mapstructure:"group_name"` // SSR group 字段
	NodeCacheTTLSeconds int    `mapstructure:"node_cache_ttl_seconds"`
}

// RegisterConfig 新用户默认值
type RegisterConfig struct {
	DefaultTrafficGB int64  `mapstructure:"default_traffic_gb"`
	DefaultMethod    string `mapstructure:"default_method"`
	DefaultProtocol  string `mapstructure:"default_protocol"`
	DefaultObfs      string `mapstructure:"default_obfs"`
	DefaultClass     int    `mapstructure:"default_class"`
	DefaultMoney     string `mapstructure:"default_money"`
	PortMin          int    `mapstructure:"port_min"`
	PortMax          int    `mapstructure:"port_max"`
}

type RedeemConfig struct {
	HourlyLimit int `mapstructure:"hourly_limit"`
}

type CronConfig struct {
	NodeOfflineAfterSeconds int `mapstructure:"node_offline_after_seconds"`
	ExpiryReminderDays      int `mapstructure:"expiry_reminder_days"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

func Load(configPath string) (*Config, error) {
	// .env 只用于本地开发，不存在时忽略
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("queue.notify_queue", "notify_queue")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("subscribe.group_name", "SPanel")
	v.SetDefault("subscribe.node_cache_ttl_seconds", 30)
	v.SetDefault("register.default_traffic_gb", 10)
	v.SetDefault("register.default_method", "chacha20-ietf-poly1305")
	v.SetDefault("register.default_protocol", "origin")
	v.SetDefault("register.default_obfs", "plain")
	v.SetDefault("register.default_money", "0")
	v.SetDefault("register.port_min", 11111)
	v.SetDefault("register.port_max", 55555)
	v.SetDefault("redeem.hourly_limit", 10)
	v.SetDefault("cron.node_offline_after_seconds", 300)
	v.SetDefault("cron.expiry_reminder_days", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
