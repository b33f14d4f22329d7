package server

import (
	"context"
	"crypto/ed25519"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jason-s-yu/fourrow/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bareConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		LogLevel:    "debug",
		TokenTTL:    time.Hour,
		IdleTimeout: time.Hour,
		DrawCount:   1,
		Difficulty:  "medium",
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	_, err = NewLogger("loud")
	assert.Error(t, err)
}

func TestNewSigner_FromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o600))

	cfg := bareConfig()
	cfg.PrivateKeyPath, cfg.PublicKeyPath = privPath, pubPath
	signer, err := NewSigner(cfg)
	require.NoError(t, err)
	assert.NotNil(t, signer)

	cfg.PublicKeyPath = filepath.Join(dir, "missing")
	_, err = NewSigner(cfg)
	assert.Error(t, err)
}

func TestNew_BadRules(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := bareConfig()
	cfg.DrawCount = 2
	_, err := New(context.Background(), cfg, logger)
	assert.Error(t, err)
}

func TestNew_UnreachableRedisIsOptional(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := bareConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := New(ctx, cfg, logger)
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Games.Snapshots)
	assert.Nil(t, s.Games.Recorder)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestServe_CreatesGamesAndShutsDown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s, err := New(context.Background(), bareConfig(), logger)
	require.NoError(t, err)
	defer s.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/game/create", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, s.Games.Sessions.Len())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
