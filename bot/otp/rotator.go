// Package otp provides the rotating access code that gates the translator
// role. The current code is process-wide shared state behind an interface so
// flows and tests depend on the contract, never on a global.
package otp

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/vesilelab/vesilebot/core/logger"
	"github.com/robfig/cron/v3"
	"log/slog"
)

// Source exposes the currently valid access code.
type Source interface {
	Current() string
}

// Rotator regenerates a six-digit code on a cron schedule.
type Rotator struct {
	mu   sync.RWMutex
	code string
	cron *cron.Cron
}

// NewRotator generates an initial code and schedules regeneration with the
// given cron spec (e.g. "@every 5m").
func NewRotator(spec string) (*Rotator, error) {
	r := &Rotator{cron: cron.New()}
	r.rotate()
	if _, err := r.cron.AddFunc(spec, r.rotate); err != nil {
		return nil, fmt.Errorf("otp: bad schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start begins the rotation schedule.
func (r *Rotator) Start() {
	r.cron.Start()
}

// Stop halts rotation; the last generated code stays valid.
func (r *Rotator) Stop() {
	r.cron.Stop()
}

// Current returns the code in effect right now.
func (r *Rotator) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code
}

func (r *Rotator) rotate() {
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	r.mu.Lock()
	r.code = code
	r.mu.Unlock()
	logger.Debug(context.Background(), "otp", "code.rotated",
		slog.String("status", "ok"),
	)
}

// Static is a fixed-code source for tests.
type Static string

// Current returns the fixed code.
func (s Static) Current() string { return string(s) }
