package cli

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coinit/internal/logging"
	"coinit/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	_ = logging.Close()
	return out.String(), err
}

// isolate clears the env the config layer reads and keeps log files in a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{
		"NEYNAR_API_KEY", "ZORA_API_KEY", "WALLET_PRIVATE_KEY", "CLANKER_FACTORY_ADDRESS",
		"RPC_URL", "PLANTS_CHANNEL_ID", "POLLING_INTERVAL", "ENABLE_ZORA", "ENABLE_CLANKER",
		"METRICS_ADDR", "LOG_LEVEL", "LEDGER_PATH",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_FILE", filepath.Join(dir, "bot.log"))
	return dir
}

func TestExecuteVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.HasPrefix(out, "coinit ") {
		t.Fatalf("output = %q", out)
	}
}

func TestTickCommand(t *testing.T) {
	out, err := execute(t, "tick")
	if err != nil || strings.TrimSpace(out) != "-230400" {
		t.Fatalf("tick = %q (%v)", out, err)
	}
}

func TestInitWritesConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "coinit.yaml")
	if _, err := execute(t, "init", "--config", path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "id: plants") {
		t.Fatalf("config = %s", b)
	}
}

func TestCheckFailsWithoutCredentials(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, "check", "--config", filepath.Join(dir, "absent.yaml"))
	var ce *model.ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "NEYNAR_API_KEY" {
		t.Fatalf("expected missing NEYNAR_API_KEY, got %v", err)
	}
}

func TestExecuteWritesOutcomeToLogFile(t *testing.T) {
	dir := isolate(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"check", "--config", filepath.Join(dir, "absent.yaml")})
	if err := Execute(); err == nil {
		t.Fatal("expected check to fail without credentials")
	}
	b, err := os.ReadFile(filepath.Join(dir, "bot.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "check_error") || !strings.Contains(string(b), "NEYNAR_API_KEY") {
		t.Fatalf("bot.log missing outcome line: %s", b)
	}
}

func TestHistoryRequiresLedger(t *testing.T) {
	dir := isolate(t)
	if _, err := execute(t, "history", "--config", filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatal("expected error with ledger disabled")
	}
}

// TestOnceThenHistory runs one tick against fake Neynar and Zora endpoints
// and reads the mint back out of the ledger.
func TestOnceThenHistory(t *testing.T) {
	dir := isolate(t)
	var mints int
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channel/search":
			_, _ = w.Write([]byte(`{"channels":[{"id":"plants","name":"Plants","follower_count":3}]}`))
		case "/feed/channel":
			ts := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
			fmt.Fprintf(w, `{"casts":[{"hash":"0xcast","author":{"username":"fern"},"text":"leaf","timestamp":%q,"embeds":[{"url":"%s/img/a.png"}]}]}`, ts, srv.URL)
		case "/img/a.png":
			w.Header().Set("Content-Type", "image/png")
		case "/create":
			mints++
			if r.Header.Get("Authorization") != "Bearer zk" {
				t.Errorf("auth = %q", r.Header.Get("Authorization"))
			}
			_, _ = w.Write([]byte(`{"transaction_hash":"0xminted"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := filepath.Join(dir, "coinit.yaml")
	yml := fmt.Sprintf(`
apis:
  neynarBaseUrl: %s
  zoraBaseUrl: %s
storage:
  ledgerPath: %s
`, srv.URL, srv.URL, filepath.Join(dir, "ledger.db"))
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NEYNAR_API_KEY", "nk")
	t.Setenv("ZORA_API_KEY", "zk")
	t.Setenv("WALLET_PRIVATE_KEY", "0x01")

	out, err := execute(t, "once", "--config", path)
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	if !strings.Contains(out, "1 new image posts, 1 processed") || mints != 1 {
		t.Fatalf("once output = %q, mints = %d", out, mints)
	}

	out, err = execute(t, "history", "--config", path)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "0xminted") || !strings.Contains(out, "0xcast") {
		t.Fatalf("history output = %q", out)
	}

	out, err = execute(t, "stats", "--config", path, "--since", "2h")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "  1  ") {
		t.Fatalf("stats output = %q", out)
	}
}
