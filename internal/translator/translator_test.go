package translator_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/raysh454/httpbrowser/internal/model"
	"github.com/raysh454/httpbrowser/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cookieList []model.Cookie

func (c cookieList) All() []model.Cookie { return c }

func TestCanonicalHeaderName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"HTTP_X_FORWARDED_FOR": "Http-X-Forwarded-For",
		"CONTENT_TYPE":         "Content-Type",
		"http_accept":          "Http-Accept",
		"HTTP_CONTENT_MD5":     "Http-Content-Md5",
	}
	for in, want := range tests {
		assert.Equal(t, want, translator.CanonicalHeaderName(in), in)
	}
}

func TestExtractHeaders(t *testing.T) {
	t.Parallel()
	server := model.NewHeaders()
	server.Set("HTTP_ACCEPT", "text/html")
	server.Set("HTTP_X_REQUESTED_WITH", "XMLHttpRequest")
	server.Set("CONTENT_TYPE", "application/json")
	server.Set("CONTENT_LENGTH", "12")
	server.Set("REMOTE_ADDR", "127.0.0.1")
	server.Set("HTTPS", "on")

	h := translator.ExtractHeaders(server)

	assert.Equal(t, []string{"Accept", "X-Requested-With", "Content-Type", "Content-Length"}, h.Keys())
	assert.Equal(t, "application/json", h.HTTPHeader()["Content-Type"][0])
	assert.False(t, h.Has("Remote-Addr"))
}

func TestExtractHeaders_BarePrefixDropped(t *testing.T) {
	t.Parallel()
	server := model.NewHeaders()
	server.Set("HTTP_", "empty")
	server.Set("HTTP__", "dashes")
	server.Set("HTTP_HOST", "localhost")

	h := translator.ExtractHeaders(server)

	assert.Equal(t, []string{"Host"}, h.Keys())
}

func TestTranslate_MultipartFilesThenParams(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.tmp")
	require.NoError(t, os.WriteFile(path, []byte("test data"), 0o600))

	req := model.NewRequest("POST", "http://example.com/upload",
		model.WithParams(model.Params{
			model.Scalar("title", "report"),
			model.Group("users",
				model.Group("0", model.Scalar("id", "0"), model.Scalar("name", "John Doe")),
				model.Group("1", model.Scalar("id", "1"), model.Scalar("name", "Jane Doe")),
			),
		}),
		model.WithFiles(model.Files{
			model.File("file", &model.UploadedFile{Path: path, Name: "file.txt", Type: "text/plain"}),
			model.FileGroup("docs",
				model.File("0", &model.UploadedFile{Content: []byte("in memory"), Name: "a.md"}),
				model.File("1", &model.UploadedFile{}),
			),
			model.FilePath("raw", path),
		}),
	)

	wire, opts, err := translator.Translate(req, nil, translator.Defaults{})
	require.NoError(t, err)
	assert.False(t, wire.HasBody)
	assert.Nil(t, opts.FormParams)

	names := make([]string, 0, len(opts.Multipart))
	for _, p := range opts.Multipart {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"file", "docs[0]", "raw",
		"title", "users[0][id]", "users[0][name]", "users[1][id]", "users[1][name]",
	}, names)

	file := opts.Multipart[0]
	assert.Equal(t, "test data", string(file.Contents))
	assert.Equal(t, "file.txt", file.Filename)
	assert.Equal(t, "text/plain", file.ContentType)

	assert.Equal(t, "upload.tmp", opts.Multipart[2].Filename)
	assert.Empty(t, opts.Multipart[2].ContentType)
	assert.Empty(t, opts.Multipart[3].Filename)
	assert.Equal(t, "report", string(opts.Multipart[3].Contents))
}

func TestTranslate_MultipartOnlyForBodyMethods(t *testing.T) {
	t.Parallel()
	req := model.NewRequest("GET", "http://example.com/",
		model.WithFiles(model.Files{model.File("f", &model.UploadedFile{Content: []byte("x")})}))

	_, opts, err := translator.Translate(req, nil, translator.Defaults{})
	require.NoError(t, err)
	assert.Empty(t, opts.Multipart)
}

func TestTranslate_MissingUploadFails(t *testing.T) {
	t.Parallel()
	req := model.NewRequest("POST", "http://example.com/",
		model.WithFiles(model.Files{model.FilePath("f", filepath.Join(t.TempDir(), "missing"))}))

	_, _, err := translator.Translate(req, nil, translator.Defaults{})
	assert.Error(t, err)
}

func TestTranslate_FormURLEncoded(t *testing.T) {
	t.Parallel()
	params := model.Params{model.Scalar("name", "Davert"), model.List("tags", "a", "b")}

	for _, ct := range []string{"", translator.FormURLEncoded} {
		opts := []model.RequestOption{model.WithParams(params)}
		if ct != "" {
			opts = append(opts, model.WithHeader("Content-Type", ct))
		}
		req := model.NewRequest("POST", "http://example.com/form", opts...)

		wire, o, err := translator.Translate(req, nil, translator.Defaults{})
		require.NoError(t, err)
		assert.Equal(t, params, o.FormParams)
		assert.Empty(t, o.Multipart)
		assert.False(t, wire.HasBody)
	}
}

func TestTranslate_FormSkippedForOtherContentTypeOrRawBody(t *testing.T) {
	t.Parallel()
	params := model.Params{model.Scalar("a", "1")}

	jsonReq := model.NewRequest("PUT", "http://example.com/api",
		model.WithParams(params),
		model.WithHeader("content-type", "application/json"),
		model.WithContent([]byte(`{"a":1}`)))
	wire, opts, err := translator.Translate(jsonReq, nil, translator.Defaults{})
	require.NoError(t, err)
	assert.Nil(t, opts.FormParams)
	assert.True(t, wire.HasBody)
	assert.Equal(t, `{"a":1}`, string(wire.Body))

	rawReq := model.NewRequest("POST", "http://example.com/api",
		model.WithParams(params), model.WithContent(nil))
	wire, opts, err = translator.Translate(rawReq, nil, translator.Defaults{})
	require.NoError(t, err)
	assert.Nil(t, opts.FormParams)
	assert.True(t, wire.HasBody)
	assert.Empty(t, wire.Body)
}

func TestTranslate_DeleteSendsForm(t *testing.T) {
	t.Parallel()
	req := model.NewRequest("DELETE", "http://example.com/item",
		model.WithParams(model.Params{model.Scalar("id", "7")}))
	_, opts, err := translator.Translate(req, nil, translator.Defaults{})
	require.NoError(t, err)
	assert.Len(t, opts.FormParams, 1)
}

func TestTranslate_GetParamsBecomeQuery(t *testing.T) {
	t.Parallel()
	req := model.NewRequest("GET", "http://example.com/search?page=2#results",
		model.WithParams(model.Params{model.Scalar("q", "go lang")}))

	wire, opts, err := translator.Translate(req, nil, translator.Defaults{})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/search?page=2&q=go+lang#results", wire.URL)
	assert.Nil(t, opts.FormParams)
}

func TestTranslate_HeadersOverrideDefaults(t *testing.T) {
	t.Parallel()
	defaults := model.NewHeaders()
	defaults.Set("User-Agent", "httpbrowser")
	defaults.Set("X-Team", "qa")

	req := model.NewRequest("GET", "http://example.com/", model.WithHeader("user-agent", "custom"))
	wire, opts, err := translator.Translate(req, nil, translator.Defaults{
		Headers: defaults,
		Auth:    &translator.Auth{Username: "u", Password: "p", Scheme: "basic"},
	})
	require.NoError(t, err)

	sent := wire.Headers.HTTPHeader()
	assert.Equal(t, "custom", sent.Get("User-Agent"))
	assert.Equal(t, "qa", sent.Get("X-Team"))
	assert.False(t, opts.AllowRedirects)
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "u", opts.Auth.Username)
	ua, _ := defaults.Get("User-Agent")
	assert.Equal(t, "httpbrowser", ua, "defaults must not be mutated")
}

func TestExtractCookies_DefaultsDomainToHost(t *testing.T) {
	t.Parallel()
	store := cookieList{
		{Name: "session", Value: "abc"},
		{Name: "tracking", Value: "x", Domain: "other.com"},
	}

	jar := translator.ExtractCookies(store, "example.com")
	all := jar.All()
	require.Len(t, all, 2)
	assert.Equal(t, "example.com", all[0].Domain)
	assert.True(t, all[0].HostOnly)
	assert.Equal(t, "other.com", all[1].Domain)
	assert.False(t, all[1].HostOnly)
	assert.Equal(t, "", store[0].Domain, "source store must not be mutated")
}

func TestJar_CookiesMatchesTarget(t *testing.T) {
	t.Parallel()
	store := cookieList{
		{Name: "session", Value: "abc"},
		{Name: "wide", Value: "1", Domain: ".example.com"},
		{Name: "other", Value: "2", Domain: "other.com"},
		{Name: "admin", Value: "3", Path: "/admin"},
		{Name: "secure", Value: "4", Secure: true},
	}
	jar := translator.ExtractCookies(store, "example.com")

	u, _ := url.Parse("http://example.com/info")
	names := map[string]string{}
	for _, c := range jar.Cookies(u) {
		names[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"session": "abc", "wide": "1"}, names)

	sub, _ := url.Parse("https://www.example.com/admin/users")
	names = map[string]string{}
	for _, c := range jar.Cookies(sub) {
		names[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"wide": "1"}, names, "host-only cookies stay on their host")
}

func TestJar_LocalhostAndIP(t *testing.T) {
	t.Parallel()
	store := cookieList{{Name: "a", Value: "1"}}
	for _, host := range []string{"localhost", "127.0.0.1"} {
		jar := translator.ExtractCookies(store, host)
		u, _ := url.Parse("http://" + host + ":8000/")
		cookies := jar.Cookies(u)
		require.Len(t, cookies, 1, host)
		assert.Equal(t, "a", cookies[0].Name)
	}
}
