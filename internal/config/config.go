package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	Fund       FundConfig       `mapstructure:"fund"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Markets    MarketsConfig    `mapstructure:"markets"`
	Protocols  ProtocolsConfig  `mapstructure:"protocols"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	RequireAPIKey  bool   `mapstructure:"require_api_key"`
	APIKey         string `mapstructure:"api_key"`
	AdminKey       string `mapstructure:"admin_key"`
	AdminSecretKey string `mapstructure:"admin_secret_key"`
}

type DatabaseConfig struct {
	DSN                       string `mapstructure:"dsn"`
	IdempotencyRetentionHours int    `mapstructure:"idempotency_retention_hours"`
	AuditRetentionDays        int    `mapstructure:"audit_retention_days"`
	CleanupIntervalMinutes    int    `mapstructure:"cleanup_interval_minutes"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
}

type ExchangeConfig struct {
	Admin         string   `mapstructure:"admin"`
	SwapFeeBps    uint64   `mapstructure:"swap_fee_bps"`
	PerpFeeBps    uint64   `mapstructure:"perp_fee_bps"`
	LendingFeeBps uint64   `mapstructure:"lending_fee_bps"`
	MaxLeverage   uint64   `mapstructure:"max_leverage"`
	VaultAssets   []string `mapstructure:"vault_assets"`
}

type FundConfig struct {
	Admin             string `mapstructure:"admin"`
	BaseAsset         string `mapstructure:"base_asset"`
	PerformanceFeeBps uint64 `mapstructure:"performance_fee_bps"`
	ManagementFeeBps  uint64 `mapstructure:"management_fee_bps"`
	FeeRecipient      string `mapstructure:"fee_recipient"`
}

type GovernanceConfig struct {
	VotingPeriodHours      int    `mapstructure:"voting_period_hours"`
	ExecutionDeadlineHours int    `mapstructure:"execution_deadline_hours"`
	MinProposalShares      uint64 `mapstructure:"min_proposal_shares"`
	MaxActiveProposals     int    `mapstructure:"max_active_proposals"`
}

type MarketsConfig struct {
	WSURL         string `mapstructure:"ws_url"`
	ApiKey        string `mapstructure:"api_key"`
	ApiSecret     string `mapstructure:"api_secret"`
	ApiPassphrase string `mapstructure:"api_passphrase"`
}

// ProtocolsConfig maps protocol names to their program addresses and the
// local settlement rates used when no host-chain submitter is wired.
type ProtocolsConfig struct {
	Manifest ProtocolConfig `mapstructure:"manifest"`
	Gamma    ProtocolConfig `mapstructure:"gamma"`
	SolFi    ProtocolConfig `mapstructure:"solfi"`
	Kamino   ProtocolConfig `mapstructure:"kamino"`
	Jupiter  ProtocolConfig `mapstructure:"jupiter"`
}

type ProtocolConfig struct {
	Program       string `mapstructure:"program"`
	SettleRateWad string `mapstructure:"settle_rate_wad"` // output per input unit, WAD
}

type RiskConfig struct {
	MaxSwapValue        uint64   `mapstructure:"max_swap_value"`
	MaxDailyValue       uint64   `mapstructure:"max_daily_value"`
	MaxDailyOps         int      `mapstructure:"max_daily_ops"`
	RestrictedProtocols []string `mapstructure:"restricted_protocols"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. BEETHOVEN_FUND_BASE_ASSET
	viper.SetEnvPrefix("beethoven")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("auth.admin_key", "")
	viper.SetDefault("auth.admin_secret_key", "")
	viper.SetDefault("redis.idempotency_ttl_seconds", 86400)
	viper.SetDefault("database.idempotency_retention_hours", 168)
	viper.SetDefault("database.audit_retention_days", 30)
	viper.SetDefault("database.cleanup_interval_minutes", 60)

	viper.SetDefault("exchange.swap_fee_bps", 30)
	viper.SetDefault("exchange.perp_fee_bps", 10)
	viper.SetDefault("exchange.lending_fee_bps", 50)
	viper.SetDefault("exchange.max_leverage", 20)

	viper.SetDefault("fund.performance_fee_bps", 1000)
	viper.SetDefault("fund.management_fee_bps", 200)

	viper.SetDefault("governance.voting_period_hours", 72)
	viper.SetDefault("governance.execution_deadline_hours", 24)
	viper.SetDefault("governance.min_proposal_shares", 1_000_000)
	viper.SetDefault("governance.max_active_proposals", 10)

	viper.SetDefault("markets.ws_url", "ws://localhost:9000/ws/market")

	viper.SetDefault("risk.max_daily_ops", 1000)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
