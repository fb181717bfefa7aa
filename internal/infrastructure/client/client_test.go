package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/importer/internal/infrastructure/config"
	"github.com/erp/importer/internal/infrastructure/session"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(config.TargetConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		c, err := NewClient(config.TargetConfig{
			BaseURL: "http://localhost:8000",
			Headers: map[string]string{"Accept-Language": "pt-BR"},
		})
		require.NoError(t, err)
		assert.Equal(t, "localhost:8000", c.BaseURL().Host)
		assert.NotNil(t, c.Jar())
	})

	t.Run("Missing base URL", func(t *testing.T) {
		_, err := NewClient(config.TargetConfig{})
		assert.Error(t, err)
	})

	t.Run("Relative base URL", func(t *testing.T) {
		_, err := NewClient(config.TargetConfig{BaseURL: "/importador"})
		assert.Error(t, err)
	})
}

func TestResolveURL(t *testing.T) {
	c, err := NewClient(config.TargetConfig{BaseURL: "http://localhost:8000/app/"})
	require.NoError(t, err)

	u, err := c.ResolveURL("importador/api/import/", map[string]string{"page": "2"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/importador/api/import/?page=2", u.String())
}

func TestPostJSON(t *testing.T) {
	var gotBody map[string]string
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"detail":"bad"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	resp, err := c.PostJSON(context.Background(), "/importador/api/import/",
		map[string]string{"module_type": "clientes", "file_path": "f1"},
		map[string]string{"X-CSRFToken": "tok"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"detail":"bad"}`, string(resp.Body))
	assert.Equal(t, "clientes", gotBody["module_type"])
	assert.Equal(t, "f1", gotBody["file_path"])
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "tok", gotHeaders.Get("X-CSRFToken"))
	assert.Equal(t, UserAgent, gotHeaders.Get("User-Agent"))
}

func TestPostFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "contratos", r.FormValue("module_type"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "contratos.csv", header.Filename)
		assert.Equal(t, "numero_contrato\nC-1\n", string(data))

		_, _ = w.Write([]byte(`{"total":1}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "contratos.csv")
	require.NoError(t, os.WriteFile(path, []byte("numero_contrato\nC-1\n"), 0o600))

	c := newTestClient(t, server)
	resp, err := c.PostFile(context.Background(), "/upload/", "file", path,
		map[string]string{"module_type": "contratos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = c.PostFile(context.Background(), "/upload/", "file", filepath.Join(t.TempDir(), "missing.csv"), nil, nil)
	assert.Error(t, err)
}

func TestCookieJar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "abc%20def", Path: "/"})
			return
		}
		cookie, err := r.Cookie("csrftoken")
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(cookie.Value))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctx := context.Background()

	_, err := c.Get(ctx, "/set", nil)
	require.NoError(t, err)

	resp, err := c.Get(ctx, "/echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "abc%20def", string(resp.Body))

	token, ok := session.Token(c.CookieStore(), "csrftoken")
	assert.True(t, ok)
	assert.Equal(t, "abc def", token)
}

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page/":
			assert.Equal(t, "text/html", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p class=\"status-processing\"></p>"))
		case "/json/":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctx := context.Background()

	body, err := c.FetchPage(ctx, "/page/")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "status-processing"))

	_, err = c.FetchPage(ctx, "/json/")
	assert.ErrorIs(t, err, ErrNotHTML)

	_, err = c.FetchPage(ctx, "/missing/")
	assert.Error(t, err)
}

func TestDo_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newTestClient(t, server)
	server.Close()

	_, err := c.Get(context.Background(), "/", nil)
	assert.Error(t, err)
}

func TestSetHeader(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Accept-Language")
	}))
	defer server.Close()

	c := newTestClient(t, server)
	c.SetHeader("Accept-Language", "pt-BR")
	_, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", got)
}
