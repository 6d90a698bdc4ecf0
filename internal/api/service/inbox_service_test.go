package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studio"
)

func TestResolvePollInterval(t *testing.T) {
	// The config value carries its unit already; 300 seconds must come out
	// as 5 minutes, not re-scaled.
	assert.Equal(t, 5*time.Minute, resolvePollInterval(300*time.Second))
	assert.Equal(t, 45*time.Second, resolvePollInterval(45*time.Second))
}

func TestResolvePollInterval_Fallback(t *testing.T) {
	assert.Equal(t, 5*time.Minute, resolvePollInterval(0))
	assert.Equal(t, 5*time.Minute, resolvePollInterval(-1*time.Second))
}

func TestInbox_PollIntervalFromConfig(t *testing.T) {
	studio.InitConfig("../../../.env.test")

	svc := NewInboxService(nil)
	cfg := studio.GetConfig().ImapConfig

	if cfg.PollInterval > 0 {
		assert.Equal(t, cfg.PollInterval, svc.pollInterval)
	} else {
		assert.Equal(t, 5*time.Minute, svc.pollInterval)
	}
	// IMAP_POLL_INTERVAL_SECONDS is seconds; the poller must not re-scale it.
	assert.LessOrEqual(t, svc.pollInterval, 24*time.Hour)
}
