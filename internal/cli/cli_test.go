package cli_test

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/httpbrowser/internal/cli"
	"github.com/raysh454/httpbrowser/internal/logging"
	"github.com/raysh454/httpbrowser/internal/testapp"
)

func newApp(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(testapp.NewServer(testapp.DefaultConfig(), logging.NewNopLogger()))
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOpen_FollowsRedirect(t *testing.T) {
	ts := newApp(t)

	out, err := run(t, "open", "/redirect", "--url", ts.URL, "--select", "h1")
	require.NoError(t, err)
	assert.Equal(t, "200 "+ts.URL+"/info\nInformation\n", out)
}

func TestOpen_NoFollow(t *testing.T) {
	ts := newApp(t)

	out, err := run(t, "open", "/redirect", "--url", ts.URL, "--no-follow", "--select", "")
	require.NoError(t, err)
	assert.Equal(t, "302 "+ts.URL+"/redirect\nLocation: /info\n", out)
}

func TestOpen_SessionFileAndEnv(t *testing.T) {
	ts := newApp(t)
	path := filepath.Join(t.TempDir(), "session.yml")
	require.NoError(t, os.WriteFile(path, []byte("url: http://unused.invalid\nuser_agent: from-file\n"), 0o600))
	t.Setenv("HTTPBROWSER_URL", ts.URL)

	out, err := run(t, "open", "/user-agent", "--config", path, "--select", "")
	require.NoError(t, err)
	assert.Equal(t, "200 "+ts.URL+"/user-agent\n", out)
}

func TestOpen_MiddlewareFlag(t *testing.T) {
	ts := newApp(t)

	out, err := run(t, "open", "/info", "--url", ts.URL, "--middleware", "logging,decompress", "--select", "#headers")
	require.NoError(t, err)
	assert.Contains(t, out, "X-Request-Id: ")

	_, err = run(t, "open", "/info", "--url", ts.URL, "--middleware", "brotli")
	assert.Error(t, err)
}

func TestOpen_MiddlewareFromSessionFile(t *testing.T) {
	ts := newApp(t)
	path := filepath.Join(t.TempDir(), "session.yml")
	require.NoError(t, os.WriteFile(path, []byte("middleware: [logging]\n"), 0o600))

	out, err := run(t, "open", "/info", "--config", path, "--url", ts.URL, "--select", "#headers")
	require.NoError(t, err)
	assert.Contains(t, out, "X-Request-Id: ")

	out, err = run(t, "open", "/info", "--config", path, "--url", ts.URL, "--middleware", "", "--select", "#headers")
	require.NoError(t, err)
	assert.NotContains(t, out, "X-Request-Id")
}

func TestOpen_Errors(t *testing.T) {
	_, err := run(t, "open")
	assert.Error(t, err)

	_, err = run(t, "open", "/", "--log-level", "loud", "--url", "http://localhost")
	assert.Error(t, err)

	_, err = run(t, "open", "/")
	assert.Error(t, err, "no base url configured")
}

func TestLoadSessionConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	require.NoError(t, os.WriteFile(path, []byte("url: http://file.local\nmax_redirects: 1\n"), 0o600))

	cfg, err := cli.LoadSessionConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "http://file.local", cfg.URL)
	assert.Equal(t, 1, cfg.MaxRedirects)

	t.Setenv("HTTPBROWSER_URL", "http://env.local")
	cfg, err = cli.LoadSessionConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "http://env.local", cfg.URL)

	cfg, err = cli.LoadSessionConfig(path, "http://flag.local")
	require.NoError(t, err)
	assert.Equal(t, "http://flag.local", cfg.URL)
}

func TestCrawl(t *testing.T) {
	ts := newApp(t)

	out, err := run(t, "crawl", "--url", ts.URL, "--depth", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "200 0 "+ts.URL+"/\n")
	assert.Contains(t, out, "200 1 "+ts.URL+"/info\n")
	assert.Contains(t, out, "200 1 "+ts.URL+"/form/echo\n")
}
