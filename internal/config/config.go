package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Market      MarketConfig      `mapstructure:"market"`
	Auth        AuthConfig        `mapstructure:"auth"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Trader      TraderConfig      `mapstructure:"trader"`
	Blackmarket BlackmarketConfig `mapstructure:"blackmarket"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	SeedFile string `mapstructure:"seed_file"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MarketConfig points at the external dynamic price feed. An empty BaseURL
// serves the static prices from the seed file instead.
type MarketConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RefreshCron string        `mapstructure:"refresh_cron"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type TraderConfig struct {
	ID             string `mapstructure:"id"`
	AvatarDir      string `mapstructure:"avatar_dir"`
	RefreshSeconds int    `mapstructure:"refresh_seconds"`
}

// BlackmarketConfig holds the static flags read once at startup
type BlackmarketConfig struct {
	ExportPriceTableToFile       bool   `mapstructure:"export_price_table_to_file"`
	ExportPath                   string `mapstructure:"export_path"`
	IgnoreFoundInRaidRequirement bool   `mapstructure:"ignore_found_in_raid_requirement"`
	IgnoreMarketEligibility      bool   `mapstructure:"ignore_market_eligibility"`
	VerboseLogging               bool   `mapstructure:"verbose_logging"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing config file falls back to defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 6969)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.url", "blackmarket.db")
	v.SetDefault("database.seed_file", "database/seed.json")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("market.base_url", "")
	v.SetDefault("market.timeout", 30*time.Second)
	v.SetDefault("market.refresh_cron", "@every 5m")
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "blackmarket.sales")
	v.SetDefault("trader.id", "blackmarket")
	v.SetDefault("trader.avatar_dir", "res")
	v.SetDefault("trader.refresh_seconds", 3600)
	v.SetDefault("blackmarket.export_price_table_to_file", false)
	v.SetDefault("blackmarket.export_path", "BlackmarketItemPrices.csv")
	v.SetDefault("blackmarket.ignore_found_in_raid_requirement", false)
	v.SetDefault("blackmarket.ignore_market_eligibility", false)
	v.SetDefault("blackmarket.verbose_logging", false)
}

func (c *Config) Validate() error {
	if c.Trader.ID == "" {
		return errors.New("trader.id is required")
	}
	if c.Trader.RefreshSeconds <= 0 {
		return errors.New("trader.refresh_seconds must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Blackmarket.ExportPriceTableToFile && c.Blackmarket.ExportPath == "" {
		return errors.New("blackmarket.export_path is required when export is enabled")
	}
	return nil
}
