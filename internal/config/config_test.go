package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coinit/internal/model"
)

// clearEnv blanks every variable ResolveEnv reads so host settings can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NEYNAR_API_KEY", "ZORA_API_KEY", "WALLET_PRIVATE_KEY", "CLANKER_FACTORY_ADDRESS",
		"RPC_URL", "PLANTS_CHANNEL_ID", "POLLING_INTERVAL", "ENABLE_ZORA", "ENABLE_CLANKER",
		"METRICS_ADDR", "LOG_LEVEL", "LOG_FILE", "LEDGER_PATH",
	} {
		t.Setenv(k, "")
	}
}

func validConfig() Config {
	cfg := Default()
	cfg.Credentials = CredentialsConfig{NeynarAPIKey: "n", ZoraAPIKey: "z", WalletPrivateKey: "k"}
	return cfg
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Channel.ID != DefaultChannelID || cfg.PollInterval() != time.Minute {
		t.Fatalf("defaults not applied: %+v", cfg.Channel)
	}
	if !cfg.Features.EnableZora || cfg.Features.EnableClanker {
		t.Fatalf("unexpected default toggles: %+v", cfg.Features)
	}
	if cfg.Chain.FactoryAddress != DefaultFactoryAddress {
		t.Fatalf("factory = %s", cfg.Chain.FactoryAddress)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "coinit.yaml")
	yml := `
channel:
  id: succulents
  pollIntervalSeconds: 30
credentials:
  neynarApiKey: from-file
features:
  enableClanker: true
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NEYNAR_API_KEY", "from-env")
	t.Setenv("ZORA_API_KEY", "zora-env")
	t.Setenv("POLLING_INTERVAL", "90")
	t.Setenv("ENABLE_ZORA", "FALSE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Credentials.NeynarAPIKey != "from-file" {
		t.Fatalf("file credential should win over env, got %q", cfg.Credentials.NeynarAPIKey)
	}
	if cfg.Credentials.ZoraAPIKey != "zora-env" {
		t.Fatalf("empty credential should come from env, got %q", cfg.Credentials.ZoraAPIKey)
	}
	if cfg.Channel.ID != "succulents" || cfg.Channel.PollIntervalSeconds != 90 {
		t.Fatalf("channel = %+v", cfg.Channel)
	}
	if cfg.Features.EnableZora || !cfg.Features.EnableClanker {
		t.Fatalf("features = %+v", cfg.Features)
	}
	if cfg.Channel.FetchLimit != 20 {
		t.Fatalf("unset yaml field should keep default, got %d", cfg.Channel.FetchLimit)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"ok", func(*Config) {}, ""},
		{"no neynar key", func(c *Config) { c.Credentials.NeynarAPIKey = "" }, "NEYNAR_API_KEY"},
		{"zora on without key", func(c *Config) { c.Credentials.ZoraAPIKey = "" }, "ZORA_API_KEY"},
		{"zora off without key", func(c *Config) { c.Credentials.ZoraAPIKey = ""; c.Features.EnableZora = false }, ""},
		{"no wallet", func(c *Config) { c.Credentials.WalletPrivateKey = "" }, "WALLET_PRIVATE_KEY"},
		{"zero interval", func(c *Config) { c.Channel.PollIntervalSeconds = 0 }, "POLLING_INTERVAL"},
		{"bad factory", func(c *Config) { c.Features.EnableClanker = true; c.Chain.FactoryAddress = "nope" }, "CLANKER_FACTORY_ADDRESS"},
		{"bad factory unused", func(c *Config) { c.Chain.FactoryAddress = "nope" }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mut(&cfg)
			err := cfg.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *model.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if ce.Field != tc.field {
				t.Fatalf("field = %s, want %s", ce.Field, tc.field)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "coinit.yaml")
	cfg := Default()
	cfg.Channel.ID = "ferns"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Channel.ID != "ferns" {
		t.Fatalf("channel = %s", got.Channel.ID)
	}
	if err := Save("", cfg); err == nil {
		t.Fatal("expected error for empty path")
	}
}
