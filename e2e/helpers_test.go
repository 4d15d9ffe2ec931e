package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/internal/testjwt"
)

var (
	binaryPath     string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "soundmap-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if postgresCleanup != nil {
		postgresCleanup()
	}
	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the soundmap server.
type ServerConfig struct {
	Port        int
	DBType      string // sqlite, postgres
	DBDSN       string
	Table       string
	StoragePath string
	JWKSURL     string
	JWKSFile    string
	RateLimit   int // requests per window, 0 disables the limiter
}

// buildBinary compiles the soundmap binary once per test run.
func buildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		binaryPath = filepath.Join(sharedTempDir, "soundmap")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/soundmap")
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			binaryBuildErr = fmt.Errorf("build binary: %w\nOutput: %s", err, output)
			return
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binary: %v", binaryBuildErr)
	}

	return binaryPath
}

// getProjectRoot returns the directory holding go.mod.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a config file for the server and returns its path.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	table := cfg.Table
	if table == "" {
		table = "sounds"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `env: test

server:
  port: %d
  public_url: "http://127.0.0.1:%d"
  shutdown_timeout: 5

database:
  type: %s
  dsn: "%s"
  auto_migrate: false
  tables:
    sounds: %s

storage:
  backend: filesystem
  name_prefix: sound
  filesystem:
    path: "%s"

auth:
  issuer: "%s"
  audience: "%s"
`,
		cfg.Port, cfg.Port,
		cfg.DBType, cfg.DBDSN, table,
		cfg.StoragePath,
		testjwt.Issuer, testjwt.Audience,
	)

	if cfg.JWKSURL != "" {
		fmt.Fprintf(&sb, "  jwks_url: \"%s\"\n", cfg.JWKSURL)
	}
	if cfg.JWKSFile != "" {
		fmt.Fprintf(&sb, "  jwks_file: \"%s\"\n", cfg.JWKSFile)
	}

	if cfg.RateLimit > 0 {
		fmt.Fprintf(&sb, "\nratelimit:\n  enabled: true\n  requests: %d\n  window: 60\n", cfg.RateLimit)
	} else {
		sb.WriteString("\nratelimit:\n  enabled: false\n")
	}

	sb.WriteString("\nlog:\n  level: error\n")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(sb.String()), 0o600), "write config file")

	return configPath
}

// runCommand runs a soundmap subcommand against the config and returns stdout.
func runCommand(t *testing.T, configPath string, args ...string) string {
	t.Helper()

	binary := buildBinary(t)
	cmd := exec.Command(binary, append(args, "--config", configPath)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run(), "soundmap %s: %s", strings.Join(args, " "), stderr.String())

	return stdout.String()
}

// startServer migrates the database and starts the soundmap binary.
// Returns the base URL and the config path; the server is stopped on test cleanup.
func startServer(t *testing.T, cfg ServerConfig) (string, string) {
	t.Helper()

	configPath := createConfigFile(t, cfg)
	runCommand(t, configPath, "migrate")

	cmd := exec.Command(buildBinary(t), "serve", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start(), "start server")

	t.Cleanup(func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	})

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	waitForServer(t, baseURL, 15*time.Second)

	return baseURL, configPath
}

// waitForServer polls the health endpoint until it answers 200 or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find open port")

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close(), "close port")

	return port
}

// writeJWKSFile writes the signer's key set to a temp file.
func writeJWKSFile(t *testing.T, signer *testjwt.Signer) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, signer.JWKS(t), 0o600))
	return path
}

// upload posts a multipart create request.
func upload(t *testing.T, baseURL, token string, fields map[string]string, filename, contentType string, content []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/sound", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setBearer(req, token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// postForm posts an urlencoded form to path.
func postForm(t *testing.T, baseURL, path, token string, form url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, baseURL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	setBearer(req, token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// get issues a GET with an optional bearer token.
func get(t *testing.T, target, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, target, http.NoBody)
	require.NoError(t, err)
	setBearer(req, token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decode reads a JSON body into v and closes it.
func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// message decodes an {"message": "..."} body.
func message(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, resp, &body)
	return body.Message
}

// readAll returns the body and closes it.
func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

// listSounds fetches a list route.
func listSounds(t *testing.T, baseURL, path, token string) []soundmap.Sound {
	t.Helper()
	resp := get(t, baseURL+path, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sounds []soundmap.Sound
	decode(t, resp, &sounds)
	return sounds
}

func findSound(sounds []soundmap.Sound, id int64) (soundmap.Sound, bool) {
	for _, s := range sounds {
		if s.ID == id {
			return s, true
		}
	}
	return soundmap.Sound{}, false
}

func idForm(id int64) url.Values {
	return url.Values{"id": {strconv.FormatInt(id, 10)}}
}
