package services

import (
	"log/slog"
	"sync"
	"time"
)

// Failed login alerting thresholds
const (
	FailedLoginThreshold = 5
	FailedLoginWindow    = 10 * time.Minute
	AlertCooldown        = time.Hour
	maxStoredAlerts      = 100
)

// SecurityEventMonitor counts failed logins per client address and raises
// an alert when one address crosses the threshold inside the window
type SecurityEventMonitor struct {
	mu           sync.Mutex
	failedLogins map[string][]time.Time
	alertedIPs   map[string]time.Time
	alerts       []SecurityAlert
}

// SecurityAlert is one raised alert, newest first in GetRecentAlerts
type SecurityAlert struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	Level     string    `json:"level"`
}

// Monitor is the process-wide monitor fed by the login handler
var Monitor = NewSecurityMonitor()

// NewSecurityMonitor returns an empty monitor
func NewSecurityMonitor() *SecurityEventMonitor {
	return &SecurityEventMonitor{
		failedLogins: make(map[string][]time.Time),
		alertedIPs:   make(map[string]time.Time),
	}
}

// TrackFailedLogin records a failed attempt from ip and reports whether it
// raised a new alert
func (m *SecurityEventMonitor) TrackFailedLogin(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := Now()
	m.pruneLocked(now)

	attempts := append(m.failedLogins[ip], now)
	m.failedLogins[ip] = attempts

	if len(attempts) < FailedLoginThreshold {
		return false
	}
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < AlertCooldown {
		return false
	}

	m.alertedIPs[ip] = now
	alert := SecurityAlert{
		Timestamp: now,
		IP:        ip,
		Reason:    "Multiple failed logins detected",
		Attempts:  len(attempts),
		Level:     "CRITICAL",
	}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxStoredAlerts {
		m.alerts = m.alerts[:maxStoredAlerts]
	}

	slog.Error("security alert", "reason", alert.Reason, "ip", ip, "attempts", alert.Attempts)
	return true
}

// pruneLocked drops attempts outside the window and expired cooldowns
func (m *SecurityEventMonitor) pruneLocked(now time.Time) {
	windowStart := now.Add(-FailedLoginWindow)
	for ip, attempts := range m.failedLogins {
		kept := attempts[:0]
		for _, at := range attempts {
			if at.After(windowStart) {
				kept = append(kept, at)
			}
		}
		if len(kept) == 0 {
			delete(m.failedLogins, ip)
		} else {
			m.failedLogins[ip] = kept
		}
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) >= AlertCooldown {
			delete(m.alertedIPs, ip)
		}
	}
}

// GetRecentAlerts returns a copy of the stored alerts, newest first
func (m *SecurityEventMonitor) GetRecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SecurityAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Reset clears all counters and alerts
func (m *SecurityEventMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedLogins = make(map[string][]time.Time)
	m.alertedIPs = make(map[string]time.Time)
	m.alerts = nil
}
