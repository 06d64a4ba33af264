package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/metrics"
	"github.com/foxseedlab/gunkan/internal/repository"
)

const reconnectTimeout = 30 * time.Second

type Snapshot struct {
	SessionID         string
	Status            repository.SessionStatus
	PhoneNumber       string
	PairingCode       string
	ConnectedAt       *time.Time
	UpdatedAt         time.Time
	ReconnectAttempts int
}

// Manager owns the connection lifecycle of the bot session. Status writes
// are persisted before they become visible.
type Manager struct {
	repo      repository.SessionRepository
	transport messaging.Transport
	clock     clock.Clock
	recorder  *activity.Recorder
	seq       *Sequence
	baseDelay time.Duration
	maxDelay  time.Duration

	mu             sync.Mutex
	current        repository.Session
	lastSeq        uint64
	epoch          uint64
	attempts       int
	reconnectTimer clock.Timer
	onConnected    func(context.Context)

	snapshot atomic.Pointer[Snapshot]

	codeMu   sync.Mutex
	code     string
	codeUsed bool
}

func NewManager(cfg *config.Config, repo repository.SessionRepository, transport messaging.Transport, clk clock.Clock, recorder *activity.Recorder, seq *Sequence) *Manager {
	m := &Manager{
		repo:      repo,
		transport: transport,
		clock:     clk,
		recorder:  recorder,
		seq:       seq,
		baseDelay: cfg.ReconnectBaseDelay,
		maxDelay:  cfg.ReconnectMaxDelay,
		current:   repository.Session{Status: repository.SessionStatusDisconnected},
	}
	m.publishLocked()
	return m
}

func (m *Manager) SetOnConnected(hook func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = hook
}

func (m *Manager) Status() Snapshot {
	return *m.snapshot.Load()
}

func (m *Manager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.repo.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if stored != nil {
		m.current = *stored
	}
	m.resetLocked()

	if !m.transport.HasCredentials() {
		if stored == nil {
			m.publishLocked()
			return nil
		}
		next := m.current
		if next.Status != repository.SessionStatusError {
			next.Status = repository.SessionStatusDisconnected
		}
		next.PairingCode = ""
		next.ConnectedAt = nil
		return m.commitLocked(ctx, next)
	}

	next := m.current
	next.Status = repository.SessionStatusConnecting
	next.PairingCode = ""
	next.ConnectedAt = nil
	if err := m.commitLocked(ctx, next); err != nil {
		return err
	}
	m.recorder.Info(ctx, repository.LogSourceWhatsApp, "Resuming WhatsApp session with stored credentials", nil)
	if err := m.transport.Connect(ctx); err != nil {
		delay := m.scheduleReconnectLocked()
		m.recorder.Warn(ctx, repository.LogSourceWhatsApp, "Initial connect failed, attempting to reconnect...", map[string]any{
			"error":    err.Error(),
			"retry_in": delay.String(),
		})
	}
	return nil
}

func (m *Manager) StartPairing(ctx context.Context, phone string) (string, error) {
	digits, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.current.Status {
	case repository.SessionStatusConnecting:
		return "", ErrPairingInProgress
	case repository.SessionStatusConnected:
		return "", ErrAlreadyConnected
	}
	// replaced, banned and outdated sessions keep their device
	if m.transport.HasCredentials() {
		if err := m.transport.Logout(ctx); err != nil {
			m.recorder.Warn(ctx, repository.LogSourceWhatsApp, "Failed to unlink previous device", map[string]any{"error": err.Error()})
		}
	}
	m.resetLocked()

	next := m.current
	next.Status = repository.SessionStatusConnecting
	next.PhoneNumber = "+" + digits
	next.PairingCode = ""
	next.ConnectedAt = nil
	if err := m.commitLocked(ctx, next); err != nil {
		return "", err
	}

	code, err := m.transport.RequestPairingCode(ctx, digits)
	if err != nil {
		m.recorder.Error(ctx, repository.LogSourceSystem, "Failed to request link code", map[string]any{"error": err.Error()})
		failed := m.current
		failed.Status = repository.SessionStatusError
		if cerr := m.commitLocked(ctx, failed); cerr != nil {
			return "", errors.Join(fmt.Errorf("request pairing code: %w", err), cerr)
		}
		return "", fmt.Errorf("request pairing code: %w", err)
	}
	if err := m.issueCodeLocked(ctx, code); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyPairing allows one attempt per issued code and never changes the
// status.
func (m *Manager) VerifyPairing(code string) bool {
	if m.Status().Status != repository.SessionStatusWaitingForCode {
		return false
	}
	m.codeMu.Lock()
	defer m.codeMu.Unlock()
	if m.code == "" || m.codeUsed {
		return false
	}
	m.codeUsed = true
	given := normalizeCode(code)
	return subtle.ConstantTimeCompare([]byte(given), []byte(normalizeCode(m.code))) == 1
}

// Disconnect leaves the session disconnected even when persisting fails.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	if m.transport.HasCredentials() {
		if err := m.transport.Logout(ctx); err != nil {
			m.recorder.Warn(ctx, repository.LogSourceWhatsApp, "Logout failed, dropping connection", map[string]any{"error": err.Error()})
			_ = m.transport.Close()
		}
	} else {
		_ = m.transport.Close()
	}

	next := m.current
	next.Status = repository.SessionStatusDisconnected
	next.PairingCode = ""
	next.ConnectedAt = nil
	err := m.commitLocked(ctx, next)
	if err != nil {
		slog.Error("failed to persist disconnect", "error", err)
		m.setLocked(next)
	}
	m.recorder.Info(ctx, repository.LogSourceSystem, "Bot disconnected manually", nil)
	return err
}

func (m *Manager) HandleConnectionUpdate(ctx context.Context, seq uint64, u messaging.ConnectionUpdate) {
	m.mu.Lock()
	if seq <= m.lastSeq {
		m.mu.Unlock()
		slog.Debug("dropping stale connection update", "seq", seq, "kind", string(u.Kind))
		return
	}
	m.lastSeq = seq

	status := m.current.Status
	if status == repository.SessionStatusDisconnected || status == repository.SessionStatusError {
		m.mu.Unlock()
		slog.Debug("ignoring connection update while inactive", "status", string(status), "kind", string(u.Kind))
		return
	}

	var hook func(context.Context)
	switch u.Kind {
	case messaging.ConnectionOpen:
		if status != repository.SessionStatusConnected && m.openLocked(ctx) {
			hook = m.onConnected
		}
	case messaging.ConnectionClose:
		if u.Reason.Fatal {
			m.failLocked(ctx, u.Reason.Detail)
		} else {
			m.connectionLostLocked(ctx, u.Reason.Detail)
		}
	}
	m.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
}

func (m *Manager) openLocked(ctx context.Context) bool {
	m.cancelReconnectLocked()
	m.attempts = 0
	m.setCode("")

	now := m.clock.Now()
	next := m.current
	next.Status = repository.SessionStatusConnected
	next.PairingCode = ""
	next.ConnectedAt = &now
	if err := m.commitLocked(ctx, next); err != nil {
		slog.Error("failed to persist connected status", "error", err)
		return false
	}
	m.recorder.Info(ctx, repository.LogSourceWhatsApp, "WhatsApp connection established", nil)
	return true
}

func (m *Manager) failLocked(ctx context.Context, detail string) {
	m.cancelReconnectLocked()
	m.attempts = 0
	m.setCode("")

	next := m.current
	next.Status = repository.SessionStatusError
	next.PairingCode = ""
	next.ConnectedAt = nil
	if err := m.commitLocked(ctx, next); err != nil {
		slog.Error("failed to persist error status", "error", err)
	}
	m.recorder.Error(ctx, repository.LogSourceWhatsApp, "WhatsApp connection logged out", map[string]any{"reason": detail})
}

func (m *Manager) connectionLostLocked(ctx context.Context, detail string) {
	m.setCode("")
	next := m.current
	next.Status = repository.SessionStatusConnecting
	next.PairingCode = ""
	next.ConnectedAt = nil
	if err := m.commitLocked(ctx, next); err != nil {
		slog.Error("failed to persist connecting status", "error", err)
	}
	delay := m.scheduleReconnectLocked()
	m.recorder.Warn(ctx, repository.LogSourceWhatsApp, "Connection closed, attempting to reconnect...", map[string]any{
		"reason":   detail,
		"retry_in": delay.String(),
	})
}

func (m *Manager) scheduleReconnectLocked() time.Duration {
	m.cancelReconnectLocked()
	delay := m.backoffLocked()
	m.attempts++
	epoch := m.epoch
	m.reconnectTimer = m.clock.AfterFunc(delay, func() {
		m.reconnect(epoch)
	})
	m.publishLocked()
	return delay
}

func (m *Manager) backoffLocked() time.Duration {
	d := m.baseDelay
	for i := 0; i < m.attempts && d < m.maxDelay; i++ {
		d *= 2
	}
	if d > m.maxDelay {
		d = m.maxDelay
	}
	return d
}

func (m *Manager) reconnect(epoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), reconnectTimeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		slog.Debug("skipping superseded reconnect", "epoch", epoch, "current_epoch", m.epoch)
		return
	}
	if s := m.current.Status; s == repository.SessionStatusDisconnected || s == repository.SessionStatusError {
		return
	}
	m.reconnectTimer = nil
	metrics.ReconnectAttempts.Inc()
	slog.Info("reconnecting", "attempt", m.attempts)

	if m.transport.HasCredentials() {
		if err := m.transport.Connect(ctx); err != nil {
			delay := m.scheduleReconnectLocked()
			slog.Warn("reconnect failed", "error", err, "retry_in", delay.String())
		}
		return
	}

	digits := strings.TrimPrefix(m.current.PhoneNumber, "+")
	if digits == "" {
		m.failLocked(ctx, "no credentials or phone number to reconnect with")
		return
	}
	code, err := m.transport.RequestPairingCode(ctx, digits)
	if err != nil {
		delay := m.scheduleReconnectLocked()
		slog.Warn("pairing code request failed", "error", err, "retry_in", delay.String())
		return
	}
	if err := m.issueCodeLocked(ctx, code); err != nil {
		slog.Error("failed to persist pairing code", "error", err)
	}
}

func (m *Manager) issueCodeLocked(ctx context.Context, code string) error {
	next := m.current
	next.Status = repository.SessionStatusWaitingForCode
	next.PairingCode = code
	if err := m.commitLocked(ctx, next); err != nil {
		return err
	}
	m.setCode(code)
	m.recorder.Info(ctx, repository.LogSourceSystem, "Link code generated", map[string]any{"phone_number": next.PhoneNumber})
	return nil
}

// resetLocked voids pending reconnects and events that already arrived.
func (m *Manager) resetLocked() {
	m.epoch++
	m.lastSeq = m.seq.Current()
	m.cancelReconnectLocked()
	m.attempts = 0
	m.setCode("")
}

func (m *Manager) cancelReconnectLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

func (m *Manager) commitLocked(ctx context.Context, next repository.Session) error {
	next.UpdatedAt = m.clock.Now()
	if err := m.repo.SaveSession(ctx, next); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if next.ID == "" {
		if stored, err := m.repo.GetSession(ctx); err == nil && stored != nil {
			next.ID = stored.ID
		}
	}
	m.setLocked(next)
	return nil
}

func (m *Manager) setLocked(next repository.Session) {
	changed := m.current.Status != next.Status
	m.current = next
	m.publishLocked()
	if changed {
		metrics.SetSessionStatus(string(next.Status))
		slog.Info("session status changed", "status", string(next.Status))
	}
}

func (m *Manager) publishLocked() {
	m.snapshot.Store(&Snapshot{
		SessionID:         m.current.ID,
		Status:            m.current.Status,
		PhoneNumber:       m.current.PhoneNumber,
		PairingCode:       m.current.PairingCode,
		ConnectedAt:       m.current.ConnectedAt,
		UpdatedAt:         m.current.UpdatedAt,
		ReconnectAttempts: m.attempts,
	})
}

func (m *Manager) setCode(code string) {
	m.codeMu.Lock()
	defer m.codeMu.Unlock()
	m.code = code
	m.codeUsed = false
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}
