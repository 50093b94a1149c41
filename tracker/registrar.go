package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"pagetrail/api/models"
)

var (
	ErrAlreadyRegistered = errors.New("session registration already attempted")
	ErrExcludedPath      = errors.New("path is excluded from tracking")
	ErrTrackingDisabled  = errors.New("tracking is disabled")
)

// Metadata is sent alongside the visitor id when a session is registered.
type Metadata struct {
	UserAgent string
	Referrer  string
}

// Registrar exchanges a visitor id for a session handle, at most once.
// A failed registration leaves tracking disabled for the registrar's lifetime.
type Registrar struct {
	remote Remote
	ip     IPLookup
	logger *zap.Logger

	attempted atomic.Bool
	enabled   atomic.Bool

	mu      sync.RWMutex
	session string
}

func NewRegistrar(remote Remote, ip IPLookup, logger *zap.Logger) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registrar{remote: remote, ip: ip, logger: logger}
}

func (r *Registrar) Register(ctx context.Context, visitorID string, meta Metadata) (string, error) {
	if !r.attempted.CompareAndSwap(false, true) {
		return "", ErrAlreadyRegistered
	}

	var addr *string
	if r.ip != nil {
		ip, err := r.ip.LookupIP(ctx)
		if err != nil {
			r.logger.Warn("public ip lookup failed, registering without address", zap.Error(err))
		} else {
			addr = &ip
		}
	}

	session, err := r.remote.GetOrCreateVisitor(ctx, models.VisitorRequest{
		VisitorID: visitorID,
		IPAddress: addr,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	})
	if err != nil {
		r.logger.Error("visitor session registration failed, tracking disabled",
			zap.String("visitor_id", visitorID), zap.Error(err))
		return "", fmt.Errorf("register visitor %s: %w", visitorID, err)
	}

	r.mu.Lock()
	r.session = session
	r.mu.Unlock()
	r.enabled.Store(true)

	r.logger.Debug("visitor session registered", zap.String("visitor_id", visitorID), zap.String("session_id", session))
	return session, nil
}

func (r *Registrar) Enabled() bool {
	return r.enabled.Load()
}

func (r *Registrar) Session() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}
