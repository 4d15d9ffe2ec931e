package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/clientcli"
	"github.com/sagarc03/soundmap/internal/testjwt"
)

const (
	adminScope  = "delete:sounds"
	createScope = "create:sounds"
)

type tokens struct {
	admin   string
	creator string
	nobody  string
}

func newTokens(t *testing.T, signer *testjwt.Signer) tokens {
	t.Helper()
	return tokens{
		admin:   signer.Token(t, adminScope, createScope),
		creator: signer.Token(t, createScope),
		nobody:  signer.Token(t),
	}
}

// TestE2E_Lifecycle_SQLite runs the sound lifecycle against SQLite with keys
// fetched from a JWKS URL.
func TestE2E_Lifecycle_SQLite(t *testing.T) {
	signer := testjwt.NewSigner(t, "e2e-sqlite")
	storageDir := t.TempDir()

	baseURL, _ := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "soundmap.db"),
		StoragePath: storageDir,
		JWKSURL:     signer.ServeJWKS(t),
	})

	runLifecycleTests(t, baseURL, storageDir, newTokens(t, signer))
}

// TestE2E_Lifecycle_Postgres runs the sound lifecycle against PostgreSQL with
// keys read from a JWKS file.
func TestE2E_Lifecycle_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres e2e in short mode")
	}

	signer := testjwt.NewSigner(t, "e2e-postgres")
	storageDir := t.TempDir()

	baseURL, _ := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "postgres",
		DBDSN:       getSharedPostgresDatabase(t),
		Table:       "sounds_lifecycle",
		StoragePath: storageDir,
		JWKSFile:    writeJWKSFile(t, signer),
	})

	runLifecycleTests(t, baseURL, storageDir, newTokens(t, signer))
}

func runLifecycleTests(t *testing.T, baseURL, storageDir string, tok tokens) {
	t.Helper()

	audio := bytes.Repeat([]byte("ID3 frame "), 512)
	fields := map[string]string{"lat": "59.9139", "lng": "10.7522", "description": "harbour foghorns"}
	var created soundmap.Sound

	t.Run("public list starts empty", func(t *testing.T) {
		resp := get(t, baseURL+"/sound-list", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, "[]", string(readAll(t, resp)))
	})

	t.Run("create without token is rejected", func(t *testing.T) {
		resp := upload(t, baseURL, "", fields, "harbour.mp3", "audio/mpeg", audio)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Requires authentication", message(t, resp))
	})

	t.Run("create with a garbage token is rejected", func(t *testing.T) {
		resp := upload(t, baseURL, "not.a.jwt", fields, "harbour.mp3", "audio/mpeg", audio)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bad credentials", message(t, resp))
	})

	t.Run("create without scope is forbidden", func(t *testing.T) {
		resp := upload(t, baseURL, tok.nobody, fields, "harbour.mp3", "audio/mpeg", audio)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("create with invalid latitude", func(t *testing.T) {
		bad := map[string]string{"lat": "95", "lng": "10"}
		resp := upload(t, baseURL, tok.creator, bad, "harbour.mp3", "audio/mpeg", audio)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("create without file", func(t *testing.T) {
		resp := upload(t, baseURL, tok.creator, fields, "", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("create stores blob and row", func(t *testing.T) {
		resp := upload(t, baseURL, tok.creator, fields, "harbour.mp3", "audio/mpeg", audio)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decode(t, resp, &created)

		assert.Positive(t, created.ID)
		assert.True(t, created.Enabled)
		assert.InDelta(t, 59.9139, created.Latitude, 1e-9)
		assert.InDelta(t, 10.7522, created.Longitude, 1e-9)
		assert.Equal(t, "harbour foghorns", created.Description)
		assert.True(t, strings.HasPrefix(created.Filename, "sound-"), created.Filename)
		assert.Equal(t, ".mp3", path.Ext(created.Filename))
		assert.Equal(t, baseURL+"/media/"+created.Filename, created.URL)

		stored, err := os.ReadFile(filepath.Join(storageDir, created.Filename))
		require.NoError(t, err)
		assert.Equal(t, audio, stored)
	})

	t.Run("media is served", func(t *testing.T) {
		resp := get(t, created.URL, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
		assert.Equal(t, audio, readAll(t, resp))
	})

	t.Run("public list has the sound", func(t *testing.T) {
		sounds := listSounds(t, baseURL, "/sound-list", "")
		got, ok := findSound(sounds, created.ID)
		require.True(t, ok)
		assert.Equal(t, created.Filename, got.Filename)
	})

	t.Run("full list needs the admin scope", func(t *testing.T) {
		resp := get(t, baseURL+"/full-sound-list", tok.creator)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("disable hides the sound from the public list", func(t *testing.T) {
		form := idForm(created.ID)
		form.Set("enabled", "false")
		resp := postForm(t, baseURL, "/sound-status", tok.admin, form)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", message(t, resp))

		_, ok := findSound(listSounds(t, baseURL, "/sound-list", ""), created.ID)
		assert.False(t, ok)

		got, ok := findSound(listSounds(t, baseURL, "/full-sound-list", tok.admin), created.ID)
		require.True(t, ok)
		assert.False(t, got.Enabled)
	})

	t.Run("status change needs the admin scope", func(t *testing.T) {
		form := idForm(created.ID)
		form.Set("enabled", "true")
		resp := postForm(t, baseURL, "/sound-status", tok.creator, form)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("re-enable", func(t *testing.T) {
		form := idForm(created.ID)
		form.Set("enabled", "true")
		resp := postForm(t, baseURL, "/sound-status", tok.admin, form)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		_, ok := findSound(listSounds(t, baseURL, "/sound-list", ""), created.ID)
		assert.True(t, ok)
	})

	t.Run("delete removes blob and row", func(t *testing.T) {
		resp := postForm(t, baseURL, "/delete-sound", tok.admin, idForm(created.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", message(t, resp))

		_, ok := findSound(listSounds(t, baseURL, "/full-sound-list", tok.admin), created.ID)
		assert.False(t, ok)

		_, err := os.Stat(filepath.Join(storageDir, created.Filename))
		assert.ErrorIs(t, err, os.ErrNotExist)

		media := get(t, created.URL, "")
		assert.Equal(t, http.StatusNotFound, media.StatusCode)
		_ = media.Body.Close()
	})

	t.Run("delete of a missing id succeeds", func(t *testing.T) {
		resp := postForm(t, baseURL, "/delete-sound", tok.admin, idForm(created.ID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("unknown route", func(t *testing.T) {
		resp := get(t, baseURL+"/nope", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Not Found", message(t, resp))
	})
}

// TestE2E_AdminClient drives the server through the clientcli package.
func TestE2E_AdminClient(t *testing.T) {
	signer := testjwt.NewSigner(t, "e2e-client")

	baseURL, _ := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "soundmap.db"),
		StoragePath: t.TempDir(),
		JWKSFile:    writeJWKSFile(t, signer),
	})

	client, err := clientcli.New(&clientcli.Config{Endpoint: baseURL, Token: signer.Token(t, adminScope, createScope)})
	require.NoError(t, err)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "rain.ogg")
	require.NoError(t, os.WriteFile(local, []byte("OggS rain"), 0o600))

	uploaded, err := client.Upload(ctx, clientcli.UploadOptions{
		LocalPath:   local,
		Latitude:    51.5,
		Longitude:   -0.12,
		Description: "rain on the skylight",
		ContentType: "audio/ogg",
	})
	require.NoError(t, err)
	assert.Equal(t, ".ogg", path.Ext(uploaded.Sound.Filename))

	_, err = client.SetStatus(ctx, clientcli.StatusOptions{ID: uploaded.Sound.ID, Enabled: false})
	require.NoError(t, err)

	public, err := client.List(ctx, clientcli.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, public.Items)

	all, err := client.List(ctx, clientcli.ListOptions{All: true})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.False(t, all.Items[0].Enabled)

	dest := filepath.Join(t.TempDir(), "copy.ogg")
	_, _, err = client.Download(ctx, clientcli.DownloadOptions{ID: uploaded.Sound.ID, LocalPath: dest})
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "OggS rain", string(data))

	results, err := client.Delete(ctx, clientcli.DeleteOptions{IDs: []int64{uploaded.Sound.ID}})
	require.NoError(t, err)
	assert.False(t, clientcli.HasDeleteErrors(results))
}

// TestE2E_Reconcile checks that the reconcile command finds and removes
// blobs with no row.
func TestE2E_Reconcile(t *testing.T) {
	signer := testjwt.NewSigner(t, "e2e-reconcile")
	storageDir := t.TempDir()

	baseURL, configPath := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "soundmap.db"),
		StoragePath: storageDir,
		JWKSFile:    writeJWKSFile(t, signer),
	})

	resp := upload(t, baseURL, signer.Token(t, createScope), map[string]string{"lat": "1", "lng": "2"}, "a.wav", "audio/wav", []byte("RIFF"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var kept soundmap.Sound
	decode(t, resp, &kept)

	orphan := "sound-orphan.mp3"
	require.NoError(t, os.WriteFile(filepath.Join(storageDir, orphan), []byte("left behind"), 0o600))

	var report soundmap.ReconcileReport
	require.NoError(t, json.Unmarshal([]byte(runCommand(t, configPath, "reconcile", "--json")), &report))
	assert.Equal(t, []string{orphan}, report.OrphanBlobs)
	assert.Empty(t, report.DanglingRows)
	assert.Zero(t, report.Deleted)

	require.NoError(t, json.Unmarshal([]byte(runCommand(t, configPath, "reconcile", "--json", "--delete")), &report))
	assert.Equal(t, 1, report.Deleted)

	_, err := os.Stat(filepath.Join(storageDir, orphan))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(storageDir, kept.Filename))
	assert.NoError(t, err)
}

// TestE2E_RateLimit checks the limiter answers 429 once the window is spent.
func TestE2E_RateLimit(t *testing.T) {
	signer := testjwt.NewSigner(t, "e2e-ratelimit")

	baseURL, _ := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "soundmap.db"),
		StoragePath: t.TempDir(),
		JWKSFile:    writeJWKSFile(t, signer),
		RateLimit:   50,
	})

	var last *http.Response
	for range 60 {
		last = get(t, baseURL+"/sound-list", "")
		if last.StatusCode == http.StatusTooManyRequests {
			break
		}
		_ = last.Body.Close()
	}

	require.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.NotEmpty(t, last.Header.Get("Retry-After"))
	assert.Equal(t, "0", last.Header.Get("X-RateLimit-Remaining"))
	_ = last.Body.Close()
}
