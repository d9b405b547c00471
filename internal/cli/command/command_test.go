package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/synckit-go/internal/config"
	"github.com/yndnr/synckit-go/internal/infra/buildinfo"
	"github.com/yndnr/synckit-go/internal/infra/confloader"
	"github.com/yndnr/synckit-go/internal/stress"
	"github.com/yndnr/synckit-go/internal/telemetry/logger"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runApp(ctx context.Context, args ...string) (stdout, stderr *syncBuffer, err error) {
	stdout, stderr = &syncBuffer{}, &syncBuffer{}
	app := App()
	app.Writer = stdout
	app.ErrWriter = stderr
	err = app.RunContext(ctx, append([]string{"synckit"}, args...))
	return stdout, stderr, err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synckit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "synckit" {
		t.Errorf("Name = %q, want synckit", app.Name)
	}

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"stress", "config", "version"} {
		if !commands[name] {
			t.Errorf("missing command: %s", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "log-level", "log-format", "output", "wide"} {
		if !flags[name] {
			t.Errorf("missing global flag: %s", name)
		}
	}
}

func TestStress_JSON(t *testing.T) {
	stdout, _, err := runApp(context.Background(),
		"-o", "json", "--log-level", "error",
		"stress", "--workers", "4", "--ops", "50", "counter", "map")
	if err != nil {
		t.Fatalf("stress error = %v", err)
	}

	var reports []stress.Report
	if err := json.Unmarshal([]byte(stdout.String()), &reports); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	for _, r := range reports {
		if !r.Passed {
			t.Errorf("%s failed: %s", r.Scenario, r.Detail)
		}
		if r.Ops != 200 {
			t.Errorf("%s ops = %d, want 200", r.Scenario, r.Ops)
		}
	}
}

func TestStress_Table(t *testing.T) {
	stdout, _, err := runApp(context.Background(),
		"--log-level", "error",
		"stress", "--workers", "2", "--ops", "20", "--permit-hold", "0s", "all")
	if err != nil {
		t.Fatalf("stress error = %v", err)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "SCENARIO") {
		t.Errorf("table output should start with header:\n%s", out)
	}
	for _, s := range stress.All() {
		if !strings.Contains(out, string(s)) {
			t.Errorf("table output missing %s:\n%s", s, out)
		}
	}
	if strings.Contains(out, "RUN_ID") {
		t.Errorf("run id column should be wide-only:\n%s", out)
	}
}

func TestStress_ConfigFileAndFlags(t *testing.T) {
	path := writeConfig(t, `
limiter:
  capacity: 1
stress:
  workers: 3
`)

	stdout, _, err := runApp(context.Background(),
		"--config", path, "-o", "json", "--log-level", "error",
		"stress", "--ops", "10", "--permit-hold", "0s", "limiter")
	if err != nil {
		t.Fatalf("stress error = %v", err)
	}

	var reports []stress.Report
	if err := json.Unmarshal([]byte(stdout.String()), &reports); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if !strings.Contains(reports[0].Detail, "capacity=1 ") {
		t.Errorf("detail = %q, want capacity from config file", reports[0].Detail)
	}
	if reports[0].Ops != 30 {
		t.Errorf("ops = %d, want 3 workers from file x 10 ops from flag", reports[0].Ops)
	}
}

func TestStress_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown scenario", []string{"stress", "queue"}, "unknown scenario"},
		{"bad shards", []string{"stress", "--shards", "3", "map"}, "map.shards"},
		{"bad output", []string{"-o", "xml", "stress", "counter"}, "output format"},
		{"missing config", []string{"--config", "/nonexistent/synckit.yaml", "stress"}, "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runApp(context.Background(), tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestStress_MetricsHold(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	app := App()
	app.Writer = stdout
	app.ErrWriter = stderr

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.RunContext(ctx, []string{"synckit", "--log-level", "error",
			"stress", "--workers", "2", "--ops", "10",
			"--metrics-addr", "127.0.0.1:0", "--hold", "limiter"})
	}()

	addrRe := regexp.MustCompile(`http://(\S+)/metrics`)
	var addr string
	deadline := time.Now().Add(5 * time.Second)
	for addr == "" && time.Now().Before(deadline) {
		if m := addrRe.FindStringSubmatch(stderr.String()); m != nil && strings.Contains(stdout.String(), "limiter") {
			addr = m[1]
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if addr == "" {
		cancel()
		t.Fatalf("metrics address or report not printed; stderr:\n%s", stderr.String())
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	for _, want := range []string{
		`synckit_permit_acquire_total{result="acquired"}`,
		`synckit_limiter_capacity{limiter="stress"} 3`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("stress --hold error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stress --hold did not return after cancel")
	}
}

func TestConfigShow(t *testing.T) {
	path := writeConfig(t, `
limiter:
  capacity: 5
`)
	t.Setenv("SYNCKIT_STRESS_OPS", "7")

	stdout, _, err := runApp(context.Background(),
		"--config", path, "--log-level", "debug", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"capacity: 5",
		"acquire_timeout: 100ms",
		"ops: 7",
		"level: debug",
		"format: json",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "map:\n  shards: 32\n")
	stdout, _, err := runApp(context.Background(), "--config", good, "config", "validate")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(stdout.String(), "configuration is valid") {
		t.Errorf("validate output = %q", stdout.String())
	}

	bad := writeConfig(t, "map:\n  shards: 30\n")
	if _, _, err := runApp(context.Background(), "--config", bad, "config", "validate"); err == nil {
		t.Error("validate should reject shards: 30")
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := runApp(context.Background(), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "synckit ") {
		t.Errorf("version output = %q", stdout.String())
	}

	stdout, _, err = runApp(context.Background(), "-o", "json", "version")
	if err != nil {
		t.Fatalf("version -o json error = %v", err)
	}
	var info buildinfo.Info
	if err := json.Unmarshal([]byte(stdout.String()), &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestEnvReload(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	defer logger.SetLevel("info")

	e := &env{
		cfg:    config.Default(),
		loader: confloader.NewLoader(confloader.WithConfigFile(path)),
		log:    logger.Discard(),
	}
	logger.SetLevel("info")

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	e.reload()
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("level after reload = %q, want debug", got)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	e.reload()
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("invalid reload changed level to %q", got)
	}
}

func TestWatchConfig_HotReloadsLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	defer logger.SetLevel("info")
	logger.SetLevel("info")

	e := &env{
		cfg:    config.Default(),
		loader: confloader.NewLoader(confloader.WithConfigFile(path)),
		log:    logger.Discard(),
	}
	w, err := e.watchConfig()
	if err != nil {
		t.Fatalf("watchConfig() error = %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("log:\n  level: error\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for logger.GetLevel() != "error" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := logger.GetLevel(); got != "error" {
		t.Errorf("level = %q, want error after file change", got)
	}
}

func TestWatchConfig_NoFile(t *testing.T) {
	e := &env{cfg: config.Default(), loader: confloader.NewLoader(), log: logger.Discard()}
	w, err := e.watchConfig()
	if err != nil || w != nil {
		t.Errorf("watchConfig() = %v, %v; want nil, nil", w, err)
	}
}
