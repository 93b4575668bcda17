package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"coinit/internal/model"
)

const (
	DefaultFactoryAddress = "0x2A787b2362021cC3eEa3C24C4748a6cD5B687382"
	DefaultRPCURL         = "https://mainnet.base.org"
	DefaultChannelID      = "plants"
	BaseChainID           = 8453
)

// Config is the application's configuration model.
// It captures credentials, the watched channel, feature toggles and chain settings.
type Config struct {
	Channel     ChannelConfig     `yaml:"channel"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Features    FeaturesConfig    `yaml:"features"`
	Chain       ChainConfig       `yaml:"chain"`
	APIs        APIConfig         `yaml:"apis"`
	HTTP        HTTPConfig        `yaml:"http"`
	Budget      BudgetConfig      `yaml:"budget"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type ChannelConfig struct {
	ID string `yaml:"id"`
	// Seconds between feed polls
	PollIntervalSeconds int `yaml:"pollIntervalSeconds"`
	// Number of recent casts fetched per poll
	FetchLimit int `yaml:"fetchLimit"`
}

type CredentialsConfig struct {
	// Neynar feed API key. If empty, read from env NEYNAR_API_KEY
	NeynarAPIKey string `yaml:"neynarApiKey"`
	// Zora mint API key. If empty, read from env ZORA_API_KEY
	ZoraAPIKey string `yaml:"zoraApiKey"`
	// Hex secp256k1 key used to sign deployments. If empty, read WALLET_PRIVATE_KEY
	WalletPrivateKey string `yaml:"walletPrivateKey"`
}

type FeaturesConfig struct {
	EnableZora    bool `yaml:"enableZora"`
	EnableClanker bool `yaml:"enableClanker"`
}

type ChainConfig struct {
	RPCURL         string `yaml:"rpcUrl"`
	FactoryAddress string `yaml:"factoryAddress"`
	ChainID        int64  `yaml:"chainId"`
}

type APIConfig struct {
	NeynarBaseURL string `yaml:"neynarBaseUrl"`
	ZoraBaseURL   string `yaml:"zoraBaseUrl"`
	ZoraChain     string `yaml:"zoraChain"`
}

type HTTPConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
	MaxAttempts       int     `yaml:"maxAttempts"`
	BaseBackoffMs     int     `yaml:"baseBackoffMs"`
	TimeoutSeconds    int     `yaml:"timeoutSeconds"`
}

// BudgetConfig caps publishes per stage; zero means unlimited.
// Caps are only enforced when the ledger is enabled.
type BudgetConfig struct {
	MaxMintsPerHour   int `yaml:"maxMintsPerHour"`
	MaxMintsPerDay    int `yaml:"maxMintsPerDay"`
	MaxDeploysPerHour int `yaml:"maxDeploysPerHour"`
	MaxDeploysPerDay  int `yaml:"maxDeploysPerDay"`
}

type StorageConfig struct {
	// SQLite path for the publication ledger; empty disables it
	LedgerPath string `yaml:"ledgerPath"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Pretty bool   `yaml:"pretty"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Channel:  ChannelConfig{ID: DefaultChannelID, PollIntervalSeconds: 60, FetchLimit: 20},
		Features: FeaturesConfig{EnableZora: true, EnableClanker: false},
		Chain:    ChainConfig{RPCURL: DefaultRPCURL, FactoryAddress: DefaultFactoryAddress, ChainID: BaseChainID},
		APIs: APIConfig{
			NeynarBaseURL: "https://api.neynar.com/v2/farcaster",
			ZoraBaseURL:   "https://api.zora.co",
			ZoraChain:     "base",
		},
		HTTP:    HTTPConfig{RequestsPerSecond: 2, Burst: 10, MaxAttempts: 3, BaseBackoffMs: 500, TimeoutSeconds: 15},
		Logging: LoggingConfig{Level: "info", File: "bot.log"},
	}
}

// ResolveEnv applies environment variables on top of file values.
// Credentials are only filled when the file left them empty; everything else
// is overridden whenever the variable is set.
func (c *Config) ResolveEnv() {
	if c.Credentials.NeynarAPIKey == "" {
		c.Credentials.NeynarAPIKey = os.Getenv("NEYNAR_API_KEY")
	}
	if c.Credentials.ZoraAPIKey == "" {
		c.Credentials.ZoraAPIKey = os.Getenv("ZORA_API_KEY")
	}
	if c.Credentials.WalletPrivateKey == "" {
		c.Credentials.WalletPrivateKey = os.Getenv("WALLET_PRIVATE_KEY")
	}
	setString(&c.Chain.FactoryAddress, "CLANKER_FACTORY_ADDRESS")
	setString(&c.Chain.RPCURL, "RPC_URL")
	setString(&c.Channel.ID, "PLANTS_CHANNEL_ID")
	setInt(&c.Channel.PollIntervalSeconds, "POLLING_INTERVAL")
	setBool(&c.Features.EnableZora, "ENABLE_ZORA")
	setBool(&c.Features.EnableClanker, "ENABLE_CLANKER")
	setString(&c.Metrics.Addr, "METRICS_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")
	setString(&c.Storage.LedgerPath, "LEDGER_PATH")
}

// Validate reports the first missing or malformed setting that would stop the bot.
func (c Config) Validate() error {
	if c.Credentials.NeynarAPIKey == "" {
		return &model.ConfigurationError{Field: "NEYNAR_API_KEY", Reason: "required"}
	}
	if c.Features.EnableZora && c.Credentials.ZoraAPIKey == "" {
		return &model.ConfigurationError{Field: "ZORA_API_KEY", Reason: "required when ENABLE_ZORA is true"}
	}
	if c.Credentials.WalletPrivateKey == "" {
		return &model.ConfigurationError{Field: "WALLET_PRIVATE_KEY", Reason: "required"}
	}
	if strings.TrimSpace(c.Channel.ID) == "" {
		return &model.ConfigurationError{Field: "channel.id", Reason: "required"}
	}
	if c.Channel.PollIntervalSeconds <= 0 {
		return &model.ConfigurationError{Field: "POLLING_INTERVAL", Reason: "must be positive"}
	}
	if c.Features.EnableClanker {
		if c.Chain.RPCURL == "" {
			return &model.ConfigurationError{Field: "RPC_URL", Reason: "required when ENABLE_CLANKER is true"}
		}
		if !common.IsHexAddress(c.Chain.FactoryAddress) {
			return &model.ConfigurationError{Field: "CLANKER_FACTORY_ADDRESS", Reason: "not a hex address"}
		}
	}
	return nil
}

// PollInterval is the configured poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Channel.PollIntervalSeconds) * time.Second
}

// Load reads YAML config from path over the defaults, after loading a .env
// file if present. A missing config file is not an error; the bot can run
// from environment variables alone.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}
