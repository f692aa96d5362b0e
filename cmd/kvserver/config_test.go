package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	noenv := func(string) string { return "" }
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	t.Run("defaults without file and environment", func(t *testing.T) {
		c, err := loadConfig("", noenv)
		require.Nil(t, err)
		assert.Equal(t, ":8090", c.Address)
		assert.Equal(t, "", c.ForwardingAddress)
		assert.Equal(t, 3*time.Second, c.forwardTimeout)
		assert.Equal(t, 50, c.MaxKeyLength)
		assert.Equal(t, 1, c.ForwardBurst)
		assert.False(t, c.Debug)
	})
	t.Run("relaxed JSON file", func(t *testing.T) {
		path := writeFile(t, "kvserver.config", `{
			address: "127.0.0.1:8091"
			forwarding_address: "127.0.0.1:8090"
			forward_timeout: "750ms"
			forward_rate: 100
			debug: true
		}`)
		c, err := loadConfig(path, noenv)
		require.Nil(t, err)
		assert.Equal(t, "127.0.0.1:8091", c.Address)
		assert.Equal(t, "127.0.0.1:8090", c.ForwardingAddress)
		assert.Equal(t, 750*time.Millisecond, c.forwardTimeout)
		assert.Equal(t, 100.0, c.ForwardRate)
		assert.True(t, c.Debug)
	})
	t.Run("YAML file", func(t *testing.T) {
		path := writeFile(t, "kvserver.yaml", "address: \":9000\"\nmax_key_length: 10\nforward_burst: 5\n")
		c, err := loadConfig(path, noenv)
		require.Nil(t, err)
		assert.Equal(t, ":9000", c.Address)
		assert.Equal(t, 10, c.MaxKeyLength)
		assert.Equal(t, 5, c.ForwardBurst)
	})
	t.Run("empty file", func(t *testing.T) {
		c, err := loadConfig(writeFile(t, "empty.yml", ""), noenv)
		require.Nil(t, err)
		assert.Equal(t, ":8090", c.Address)
	})
	t.Run("environment wins over file", func(t *testing.T) {
		path := writeFile(t, "kvserver.yaml", "address: \":9000\"\nforwarding_address: a:1\n")
		c, err := loadConfig(path, env(map[string]string{
			"SOCKET_ADDRESS":     ":9001",
			"FORWARDING_ADDRESS": "b:2",
			"FORWARD_TIMEOUT":    "2s",
			"FORWARD_RATE":       "2.5",
			"DEBUG":              "true",
		}))
		require.Nil(t, err)
		assert.Equal(t, ":9001", c.Address)
		assert.Equal(t, "b:2", c.ForwardingAddress)
		assert.Equal(t, 2*time.Second, c.forwardTimeout)
		assert.Equal(t, 2.5, c.ForwardRate)
		assert.True(t, c.Debug)
	})
	t.Run("invalid values", func(t *testing.T) {
		for _, m := range []map[string]string{
			{"FORWARD_TIMEOUT": "soon"},
			{"FORWARD_TIMEOUT": "-1s"},
			{"FORWARD_RATE": "fast"},
			{"FORWARD_RATE": "-1"},
			{"DEBUG": "maybe"},
		} {
			_, err := loadConfig("", env(m))
			assert.NotNil(t, err, "%v", m)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.config"), noenv)
		assert.True(t, os.IsNotExist(err))
	})
	t.Run("malformed file", func(t *testing.T) {
		_, err := loadConfig(writeFile(t, "bad.yaml", "address: [unterminated\n"), noenv)
		assert.NotNil(t, err)
	})
}

func TestNewServer(t *testing.T) {
	t.Run("canonical", func(t *testing.T) {
		c, err := loadConfig("", func(string) string { return "" })
		require.Nil(t, err)
		assert.NotNil(t, newServer(c))
	})
	t.Run("forwarding", func(t *testing.T) {
		c, err := loadConfig("", func(k string) string {
			if k == "FORWARDING_ADDRESS" {
				return "127.0.0.1:1"
			}
			return ""
		})
		require.Nil(t, err)
		assert.NotNil(t, newServer(c))
	})
}

func TestRedirectLogging(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	t.Run("no log path keeps the current output", func(t *testing.T) {
		c, err := loadConfig("", func(string) string { return "" })
		require.Nil(t, err)
		redirectLogging(c)()
	})
	t.Run("log path receives later lines", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("KVS_LOG_DIR", dir)
		path := writeFile(t, "kvserver.yaml", "log_path: $KVS_LOG_DIR/kvserver.log\n")
		c, err := loadConfig(path, func(string) string { return "" })
		require.Nil(t, err)
		cleanup := redirectLogging(c)
		log.WithField("key", "k").Info("Written to the log file")
		cleanup()
		log.SetOutput(os.Stderr)
		b, err := os.ReadFile(filepath.Join(dir, "kvserver.log"))
		require.Nil(t, err)
		assert.Contains(t, string(b), "Written to the log file")
		assert.Contains(t, string(b), "key=k")
	})
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
