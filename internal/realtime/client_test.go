package realtime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewClient_DefaultsTimeouts(t *testing.T) {
	c := NewClient("alice", nil, NewRegistry(), nil, Config{
		WriteWait:    10 * time.Second,
		PingInterval: 30 * time.Second,
	}, zerolog.Nop())

	assert.Equal(t, 60*time.Second, c.config.IdleTimeout,
		"idle timeout defaults to twice the ping interval")
	assert.Equal(t, 5*time.Second, c.config.DispatchTimeout)
}

func TestNewClient_KeepsExplicitTimeouts(t *testing.T) {
	c := NewClient("alice", nil, NewRegistry(), nil, Config{
		WriteWait:       time.Second,
		PingInterval:    30 * time.Second,
		IdleTimeout:     45 * time.Second,
		DispatchTimeout: 2 * time.Second,
	}, zerolog.Nop())

	assert.Equal(t, 45*time.Second, c.config.IdleTimeout)
	assert.Equal(t, 2*time.Second, c.config.DispatchTimeout)
}

func TestDefaultConfig_DispatchTimeoutSet(t *testing.T) {
	cfg := DefaultConfig()
	assert.Greater(t, cfg.DispatchTimeout, time.Duration(0))
	assert.Equal(t, 2*cfg.PingInterval, cfg.IdleTimeout)
}
