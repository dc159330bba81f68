// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/blobstore/filestore"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/chart/charttest"
	"github.com/swingcharts/swing/private/testcontext"
	"github.com/swingcharts/swing/publish"
	"github.com/swingcharts/swing/server/api"
	"github.com/swingcharts/swing/swingdb"
	"github.com/swingcharts/swing/swingdb/swingdbtest"
)

type testServer struct {
	t   *testing.T
	ctx *testcontext.Context
	url string
}

func newTestServer(ctx *testcontext.Context, t *testing.T, db *swingdb.DB, config api.Config, attempts int) *testServer {
	log := zaptest.NewLogger(t)

	blobs, err := filestore.NewAt(log, ctx.Dir("archives"), filestore.Config{})
	require.NoError(t, err)

	limiter := accounts.NewLimiter(accounts.LimiterConfig{Attempts: attempts, LockInterval: time.Hour})
	accountsService := accounts.NewService(log.Named("accounts"), db.Accounts(), limiter, accounts.Config{PasswordCost: 4})
	catalogService := catalog.NewService(log.Named("catalog"), db.Catalog(), blobs)
	publishService := publish.NewService(log.Named("publish"), catalogService, blobs, publish.Config{PublicURL: "https://charts.example.com"})

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		_, err := accountsService.CreateUser(ctx, email, "password")
		require.NoError(t, err)
	}

	server := httptest.NewServer(api.NewServer(log.Named("api"), accountsService, publishService, config))
	t.Cleanup(server.Close)

	return &testServer{t: t, ctx: ctx, url: server.URL}
}

func (server *testServer) do(method, path, token string, body io.Reader, contentType string) (*http.Response, []byte) {
	server.t.Helper()

	req, err := http.NewRequestWithContext(server.ctx, method, server.url+path, body)
	require.NoError(server.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(server.t, err)
	defer func() { require.NoError(server.t, resp.Body.Close()) }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(server.t, err)
	return resp, data
}

func (server *testServer) login(email string) string {
	server.t.Helper()

	req, err := http.NewRequestWithContext(server.ctx, http.MethodPost, server.url+"/login", nil)
	require.NoError(server.t, err)
	req.SetBasicAuth(email, "password")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(server.t, err)
	require.NoError(server.t, resp.Body.Close())
	require.Equal(server.t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == api.SessionCookie {
			require.True(server.t, cookie.HttpOnly)
			return cookie.Value
		}
	}
	server.t.Fatal("session cookie missing")
	return ""
}

func (server *testServer) publish(token, filename string, archive []byte, notes string) (*http.Response, []byte) {
	server.t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("chart", filename)
	require.NoError(server.t, err)
	_, err = part.Write(archive)
	require.NoError(server.t, err)
	if notes != "" {
		require.NoError(server.t, writer.WriteField("notes", notes))
	}
	require.NoError(server.t, writer.Close())

	return server.do(http.MethodPost, "/release", token, &body, writer.FormDataContentType())
}

func decodeError(t *testing.T, data []byte) api.ErrorResponse {
	var response api.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &response), string(data))
	return response
}

func TestPublishListDownloadDelete(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		server := newTestServer(ctx, t, db, api.Config{}, 100)
		token := server.login("alice@example.com")

		archive := charttest.Valid(t, "web-app", "1.0", "a web application")
		resp, body := server.publish(token, "web-app-1.0.zip", archive, "first release")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var release publish.ReleaseInfo
		require.NoError(t, json.Unmarshal(body, &release))
		assert.Equal(t, "1.0", release.Version)
		assert.Equal(t, "first release", release.Notes)
		assert.Equal(t, "https://charts.example.com/release/web-app-1.0.zip", release.ArchiveURL)

		resp, body = server.publish(token, "web-app-1.10.zip", charttest.Valid(t, "web-app", "1.10", "updated"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		resp, body = server.do(http.MethodGet, "/chart?query=WEB", "", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var packages []publish.PackageInfo
		require.NoError(t, json.Unmarshal(body, &packages))
		require.Equal(t, []publish.PackageInfo{{Name: "web-app", Description: "updated"}}, packages)

		resp, body = server.do(http.MethodGet, "/release?chart=web-app", "", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var releases []publish.ReleaseInfo
		require.NoError(t, json.Unmarshal(body, &releases))
		require.Len(t, releases, 2)
		assert.Equal(t, "1.10", releases[0].Version)
		assert.Equal(t, "1.0", releases[1].Version)

		resp, body = server.do(http.MethodGet, "/release/web-app-1.0.zip", "", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename=web-app-1.0.zip`, resp.Header.Get("Content-Disposition"))
		assert.Equal(t, archive, body)

		resp, body = server.do(http.MethodGet, "/status", "", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok","charts":1}`, string(body))

		resp, body = server.do(http.MethodDelete, "/chart/web-app?version=1.0", token, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		resp, _ = server.do(http.MethodGet, "/release/web-app-1.0.zip", "", nil, "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, body = server.do(http.MethodDelete, "/chart/web-app", token, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.JSONEq(t, `{"name":"web-app","description":"updated"}`, string(body))

		resp, _ = server.do(http.MethodGet, "/release?chart=web-app", "", nil, "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPublishErrors(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		server := newTestServer(ctx, t, db, api.Config{MaxArchiveSize: 4096}, 100)
		alice := server.login("alice@example.com")
		bob := server.login("bob@example.com")

		archive := charttest.Valid(t, "web-app", "1.0", "")

		resp, body := server.publish("", "web-app-1.0.zip", archive, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, decodeError(t, body).Code)

		resp, body = server.publish(alice, "web-app-1.0.zip", archive, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		resp, body = server.publish(alice, "web-app-1.0.zip", archive, "")
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		response := decodeError(t, body)
		assert.Equal(t, "Conflict", response.Name)
		assert.Contains(t, response.Description, "1.0")

		resp, _ = server.publish(bob, "web-app-2.0.zip", charttest.Valid(t, "web-app", "2.0", ""), "")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = server.do(http.MethodDelete, "/chart/web-app", bob, nil, "")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = server.publish(alice, "web_app.zip", archive, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = server.publish(alice, "broken-1.0.zip", []byte("not a zip"), "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		missing := charttest.Archive(t, charttest.File{Name: "chart.yaml", Content: charttest.Definition("other", "1.0", "")})
		resp, body = server.publish(alice, "other-1.0.zip", missing, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Bad Request", decodeError(t, body).Name)

		resp, _ = server.publish(alice, "big-1.0.zip", bytes.Repeat([]byte{1}, 8192), "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = server.do(http.MethodPost, "/release", alice, bytes.NewReader([]byte("plain")), "text/plain")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLookupErrors(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		server := newTestServer(ctx, t, db, api.Config{}, 100)

		for _, tc := range []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/release", http.StatusBadRequest},
			{http.MethodGet, "/release?chart=Bad_Name", http.StatusBadRequest},
			{http.MethodGet, "/release?chart=unknown", http.StatusNotFound},
			{http.MethodGet, "/release/unknown-1.0.zip", http.StatusNotFound},
			{http.MethodGet, "/release/not-a-filename", http.StatusBadRequest},
			{http.MethodDelete, "/chart/unknown", http.StatusUnauthorized},
			{http.MethodGet, "/missing", http.StatusNotFound},
			{http.MethodPut, "/status", http.StatusMethodNotAllowed},
		} {
			resp, body := server.do(tc.method, tc.path, "", nil, "")
			require.Equal(t, tc.status, resp.StatusCode, tc.path)
			require.Equal(t, "application/json", resp.Header.Get("Content-Type"), tc.path)
			require.Equal(t, tc.status, decodeError(t, body).Code, tc.path)
		}
	})
}

func TestLoginLogout(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		server := newTestServer(ctx, t, db, api.Config{}, 2)

		resp, _ := server.do(http.MethodPost, "/login", "", nil, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		token := server.login("alice@example.com")

		// an authenticated login returns the current user
		resp, body := server.do(http.MethodPost, "/login", token, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"email":"alice@example.com"}`, string(body))

		resp, body = server.do(http.MethodPost, "/logout", token, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"You have been logged out."}`, string(body))

		resp, body = server.do(http.MethodPost, "/logout", token, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"You are currently not logged in."}`, string(body))

		resp, _ = server.do(http.MethodDelete, "/chart/web-app", token, nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.url+"/login", nil)
		require.NoError(t, err)
		req.SetBasicAuth("alice@example.com", "wrong")
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		// the limiter allows two attempts per client and both were used
		resp, err = http.DefaultClient.Do(req.Clone(ctx))
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}

func TestCookieAuthentication(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		server := newTestServer(ctx, t, db, api.Config{}, 100)
		token := server.login("alice@example.com")

		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, server.url+"/chart/unknown", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: token})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
