package auth

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// HealthState mirrors the three-state health machine the teacher's
// HSMMonitor drives for its signing backend (hsm_monitor.go), generalized
// here from "is the HSM reachable" to "is the configured Provider
// responding within its latency budget" — the property that matters for a
// software or remote signer backing transaction auth.
type HealthState int32

const (
	HealthNormal HealthState = iota
	HealthDegraded
	HealthFailed
)

func (s HealthState) String() string {
	switch s {
	case HealthNormal:
		return "NORMAL"
	case HealthDegraded:
		return "DEGRADED"
	case HealthFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// LatencyTrackedProvider wraps a Provider, tracking consecutive slow or
// failing Sign calls and tripping into a degraded/failed state the caller
// can check before routing transactions to this signer.
type LatencyTrackedProvider struct {
	inner       Provider
	budget      time.Duration
	failThreshold int

	state        atomic.Int32
	mu           sync.Mutex
	failCount    int
	degradedSince time.Time
	failoverAfter time.Duration
	logger       *slog.Logger
}

// NewLatencyTrackedProvider wraps inner, tripping to Degraded after
// failThreshold consecutive Sign calls exceed budget, and to Failed if it
// stays degraded longer than failoverAfter (0 disables the Failed
// escalation).
func NewLatencyTrackedProvider(inner Provider, budget time.Duration, failThreshold int, failoverAfter time.Duration) *LatencyTrackedProvider {
	return &LatencyTrackedProvider{
		inner:         inner,
		budget:        budget,
		failThreshold: failThreshold,
		failoverAfter: failoverAfter,
		logger:        slog.Default(),
	}
}

// State returns the current health state.
func (p *LatencyTrackedProvider) State() HealthState { return HealthState(p.state.Load()) }

// CanSign reports whether the provider is healthy enough to sign.
func (p *LatencyTrackedProvider) CanSign() bool { return p.State() == HealthNormal }

func (p *LatencyTrackedProvider) Sign(digest [32]byte) ([]byte, error) {
	start := time.Now()
	sig, err := p.inner.Sign(digest)
	p.record(time.Since(start), err)
	return sig, err
}

func (p *LatencyTrackedProvider) Verify(pubKey, sig []byte, digest [32]byte) bool {
	return p.inner.Verify(pubKey, sig, digest)
}

func (p *LatencyTrackedProvider) PublicKey() []byte { return p.inner.PublicKey() }

func (p *LatencyTrackedProvider) record(elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := HealthState(p.state.Load())
	slow := elapsed > p.budget

	if err == nil && !slow {
		if current != HealthNormal {
			p.logger.Info("auth provider recovered", "from", current.String(), "to", "NORMAL")
		}
		p.failCount = 0
		p.state.Store(int32(HealthNormal))
		return
	}

	p.failCount++
	p.logger.Warn("auth provider sign call degraded",
		"elapsed", elapsed.String(), "budget", p.budget.String(), "fail_count", p.failCount)

	if current == HealthNormal && p.failCount >= p.failThreshold {
		p.degradedSince = time.Now()
		p.state.Store(int32(HealthDegraded))
		p.logger.Warn("auth provider entering DEGRADED state", "fail_count", p.failCount)
		return
	}

	if current == HealthDegraded && p.failoverAfter > 0 && time.Since(p.degradedSince) >= p.failoverAfter {
		p.state.Store(int32(HealthFailed))
		p.logger.Error("auth provider FAILED", "degraded_for", time.Since(p.degradedSince).String())
	}
}
