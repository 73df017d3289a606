package storage

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseDSN(t *testing.T, dsn string) DatabaseConfig {
	t.Helper()
	u, err := url.Parse(dsn)
	require.NoError(t, err)

	port := 5432
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		require.NoError(t, err)
	}
	password, _ := u.User.Password()
	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}
	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}
}

func TestPostgresStore_LoadEpisodes(t *testing.T) {
	dsn := os.Getenv("GMFC101_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("GMFC101_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, mustParseDSN(t, dsn))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.LoadEpisodes(ctx)
	assert.NoError(t, err)
}
