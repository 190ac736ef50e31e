package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/session"
	"taskboard/internal/testutil"
)

// testConfig points every path into the test's temp dir
const testConfig = `api:
  base_url: %s
ui:
  default_theme: dark
%slogging:
  file: %s
analytics:
  enabled: true
  path: %s
`

// cliTest runs commands against a FakeAPI with an isolated session, config
// and analytics database.
type cliTest struct {
	t       *testing.T
	api     *testutil.FakeAPI
	keyring *session.MockKeyring
	cfg     *Config
	tmpDir  string
	env     map[string]string
}

func newCLITest(t *testing.T) *cliTest {
	t.Helper()

	tmpDir := t.TempDir()
	c := &cliTest{
		t:       t,
		api:     testutil.NewFakeAPI(t),
		keyring: session.NewMockKeyring(),
		tmpDir:  tmpDir,
		env:     map[string]string{},
	}
	c.cfg = &Config{
		ConfigPath:  filepath.Join(tmpDir, "config.yaml"),
		SessionPath: filepath.Join(tmpDir, "state", "session.yaml"),
		DotEnvPath:  filepath.Join(tmpDir, ".env"),
		Keyring:     c.keyring,
		Getenv:      func(key string) string { return c.env[key] },
	}
	c.writeConfig("")
	return c
}

// writeConfig writes the test config with extra lines in the ui section
func (c *cliTest) writeConfig(extraUI string) {
	c.t.Helper()
	content := fmt.Sprintf(testConfig,
		c.api.BaseURL(),
		extraUI,
		filepath.Join(c.tmpDir, "taskboard.log"),
		filepath.Join(c.tmpDir, "analytics.db"))
	if err := os.WriteFile(c.cfg.ConfigPath, []byte(content), 0644); err != nil {
		c.t.Fatalf("failed to write config: %v", err)
	}
}

// writeDotEnv writes the .env file read at startup
func (c *cliTest) writeDotEnv(content string) {
	c.t.Helper()
	if err := os.WriteFile(c.cfg.DotEnvPath, []byte(content), 0600); err != nil {
		c.t.Fatalf("failed to write .env: %v", err)
	}
}

// session opens the session state the CLI reads
func (c *cliTest) session() *session.Manager {
	c.t.Helper()
	m := session.NewManager(c.cfg.SessionPath,
		session.WithKeyring(c.keyring),
		session.WithEnv(func(key string) string { return c.env[key] }))
	if err := m.Load(); err != nil {
		c.t.Fatalf("failed to load session: %v", err)
	}
	return m
}

// login stores a valid session without going through the CLI
func (c *cliTest) login() {
	c.t.Helper()
	if err := c.session().SaveLogin(testutil.TestUser, testutil.TestToken); err != nil {
		c.t.Fatalf("failed to save login: %v", err)
	}
}

// executeWithInput runs a command with stdin and returns its output and exit code
func (c *cliTest) executeWithInput(input string, args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()
	var outBuf, errBuf bytes.Buffer
	c.cfg.Stdin = strings.NewReader(input)
	exitCode = Execute(args, &outBuf, &errBuf, c.cfg)
	return outBuf.String(), errBuf.String(), exitCode
}

// execute runs a command with empty stdin
func (c *cliTest) execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()
	return c.executeWithInput("", args...)
}

// mustExecute runs a command and fails the test on a non-zero exit
func (c *cliTest) mustExecute(args ...string) string {
	c.t.Helper()
	stdout, stderr, code := c.execute(args...)
	if code != ExitOK {
		c.t.Fatalf("%v: exit code %d\nstdout: %s\nstderr: %s", args, code, stdout, stderr)
	}
	return stdout
}

// executeAndFail runs a command that must exit with want
func (c *cliTest) executeAndFail(want int, args ...string) (stdout, stderr string) {
	c.t.Helper()
	stdout, stderr, code := c.execute(args...)
	if code != want {
		c.t.Fatalf("%v: expected exit code %d, got %d\nstdout: %s\nstderr: %s", args, want, code, stdout, stderr)
	}
	return stdout, stderr
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

func assertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output not to contain %q, got:\n%s", unexpected, output)
	}
}
