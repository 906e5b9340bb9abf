package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityMonitor(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	useClock(t, now, false)
	clock := now
	restore := SetNowFunc(func() time.Time { return clock })
	defer restore()

	m := NewSecurityMonitor()
	ip := "127.0.0.1"

	t.Run("AlertAtThreshold", func(t *testing.T) {
		for i := 0; i < FailedLoginThreshold-1; i++ {
			assert.False(t, m.TrackFailedLogin(ip))
		}
		assert.Empty(t, m.GetRecentAlerts())

		assert.True(t, m.TrackFailedLogin(ip))
		alerts := m.GetRecentAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, ip, alerts[0].IP)
		assert.Equal(t, FailedLoginThreshold, alerts[0].Attempts)
		assert.Contains(t, alerts[0].Reason, "Multiple failed logins")
	})

	t.Run("CooldownSuppressesRepeats", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.False(t, m.TrackFailedLogin(ip))
		}
		assert.Len(t, m.GetRecentAlerts(), 1)
	})

	t.Run("OtherAddressCountedSeparately", func(t *testing.T) {
		assert.False(t, m.TrackFailedLogin("10.0.0.9"))
	})

	t.Run("WindowExpires", func(t *testing.T) {
		clock = now.Add(FailedLoginWindow + time.Minute)
		assert.False(t, m.TrackFailedLogin("10.0.0.9"))
		m.mu.Lock()
		assert.Len(t, m.failedLogins["10.0.0.9"], 1)
		m.mu.Unlock()
	})

	t.Run("AlertsAgainAfterCooldown", func(t *testing.T) {
		clock = now.Add(AlertCooldown + time.Minute)
		raised := false
		for i := 0; i < FailedLoginThreshold; i++ {
			raised = m.TrackFailedLogin(ip)
		}
		assert.True(t, raised)
		alerts := m.GetRecentAlerts()
		require.Len(t, alerts, 2)
		assert.Equal(t, clock, alerts[0].Timestamp)
	})

	t.Run("Reset", func(t *testing.T) {
		m.Reset()
		assert.Empty(t, m.GetRecentAlerts())
	})
}
