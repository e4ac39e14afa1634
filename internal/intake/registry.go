package intake

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Yiling-J/theine-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"server/internal/domain"
	"server/internal/metrics"
)

// RegistryConfig bounds the set of live sessions.
type RegistryConfig struct {
	MaxSessions int64
	SessionTTL  time.Duration
	QRTimeout   time.Duration
	Panel       PanelConfig
	Clock       Clock
}

// Registry keeps the live intake sessions. Evicted or expired sessions are
// closed, which drops their drafts and cancels their QR timers.
type Registry struct {
	cfg      RegistryConfig
	cache    *theine.Cache[string, *Session]
	recorder Recorder
	logger   zerolog.Logger

	closeOnce sync.Once
}

// NewRegistry builds a session registry.
func NewRegistry(cfg RegistryConfig, recorder Recorder, logger zerolog.Logger) (*Registry, error) {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10000
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	cache, err := theine.NewBuilder[string, *Session](cfg.MaxSessions).
		RemovalListener(func(key string, s *Session, reason theine.RemoveReason) {
			metrics.IntakeSessions.Dec()
			go s.Close()
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("intake: build session cache: %w", err)
	}
	return &Registry{cfg: cfg, cache: cache, recorder: recorder, logger: logger}, nil
}

// Start opens a new session owned by id. country is an optional ISO region
// hint used to pre-select the draft's country.
func (r *Registry) Start(id domain.Identity, country string) *Session {
	s := NewSession(SessionConfig{
		ID:        uuid.NewString(),
		Identity:  id,
		Country:   CountryName(country),
		Panel:     r.cfg.Panel,
		Clock:     r.cfg.Clock,
		QRTimeout: r.cfg.QRTimeout,
		Recorder:  r.recorder,
		Logger:    r.logger,
	})
	r.cache.SetWithTTL(s.ID, s, 1, r.cfg.SessionTTL)
	metrics.IntakeSessions.Inc()
	r.logger.Debug().Str("intake_session", s.ID).Str("user_id", id.ID).Msg("intake session started")
	return s
}

// Get returns the session if it exists and belongs to id.
func (r *Registry) Get(id domain.Identity, sessionID string) (*Session, error) {
	s, ok := r.cache.Get(sessionID)
	if !ok || s.Closed() || s.OwnerID != id.ID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Discard drops a session and its draft.
func (r *Registry) Discard(id domain.Identity, sessionID string) error {
	s, err := r.Get(id, sessionID)
	if err != nil {
		return err
	}
	r.cache.Delete(sessionID)
	s.Close()
	return nil
}

// Close stops every live session and releases the cache. Closing the cache
// does not run the removal listener, so sessions are closed here.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		var live []*Session
		r.cache.Range(func(_ string, s *Session) bool {
			live = append(live, s)
			return true
		})
		for _, s := range live {
			s.Close()
			metrics.IntakeSessions.Dec()
		}
		r.cache.Close()
	})
}

// CountryName maps an ISO region code to its English name. Unknown or empty
// codes yield "".
func CountryName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return ""
	}
	return display.English.Regions().Name(region)
}
