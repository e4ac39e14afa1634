package intake

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/metrics"
)

// Recorder appends a finished donation to the ledger.
type Recorder interface {
	Create(ctx context.Context, donation *domain.Donation) (*domain.Donation, error)
}

const submitTimeout = 15 * time.Second

type submitResult struct {
	donation *domain.Donation
	err      error
}

// Session is one donor's intake flow. All machine access goes through a single
// goroutine fed by the inbox: user commands, QR expiry and submit completions
// are handled strictly in arrival order.
type Session struct {
	ID      string
	OwnerID string

	machine  *Machine
	recorder Recorder
	logger   zerolog.Logger

	inbox    chan func(*Machine)
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// SessionConfig configures a new Session.
type SessionConfig struct {
	ID        string
	Identity  domain.Identity
	Country   string
	Panel     PanelConfig
	Clock     Clock
	QRTimeout time.Duration
	Recorder  Recorder
	Logger    zerolog.Logger
}

// NewSession builds a session and starts its loop.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		ID:       cfg.ID,
		OwnerID:  cfg.Identity.ID,
		recorder: cfg.Recorder,
		logger:   cfg.Logger.With().Str("intake_session", cfg.ID).Logger(),
		inbox:    make(chan func(*Machine)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.machine = NewMachine(MachineConfig{
		Identity:   cfg.Identity,
		Country:    cfg.Country,
		Panel:      cfg.Panel,
		Clock:      cfg.Clock,
		QRTimeout:  cfg.QRTimeout,
		OnQRExpire: s.qrExpired,
	})
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.inbox:
			fn(s.machine)
		case <-s.stop:
			s.machine.Discard()
			return
		}
	}
}

// post queues fn without waiting for it to run.
func (s *Session) post(fn func(*Machine)) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the session goroutine and waits for its result.
func (s *Session) do(ctx context.Context, fn func(*Machine) error) error {
	reply := make(chan error, 1)
	select {
	case s.inbox <- func(m *Machine) { reply <- fn(m) }:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) qrExpired(gen uint64) {
	// Runs on the timer goroutine; only the generation crosses over.
	go s.post(func(m *Machine) {
		accepted, err := m.Expire(gen)
		if !accepted {
			return
		}
		metrics.QRTimerExpired.Inc()
		ev := s.logger.Info().Str("step", m.Step().String())
		if err != nil {
			ev = ev.AnErr("advance_error", err)
		}
		ev.Msg("qr window expired, attempted next")
	})
}

// View returns the current state.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	err := s.do(ctx, func(m *Machine) error {
		v = m.View()
		return nil
	})
	return v, err
}

// SetFields applies edits in the given order and stops at the first unknown
// field or invalid donation type.
func (s *Session) SetFields(ctx context.Context, fields []FieldEdit) (View, error) {
	var v View
	err := s.do(ctx, func(m *Machine) error {
		for _, f := range fields {
			if err := m.SetField(f.Name, f.Value); err != nil {
				v = m.View()
				return err
			}
		}
		v = m.View()
		return nil
	})
	return v, err
}

// FieldEdit is one field assignment.
type FieldEdit struct {
	Name  string
	Value string
}

// Next attempts to advance one step.
func (s *Session) Next(ctx context.Context) (View, error) {
	return s.transition(ctx, (*Machine).Next)
}

// Back returns to the previous step.
func (s *Session) Back(ctx context.Context) (View, error) {
	return s.transition(ctx, (*Machine).Back)
}

// CloseQR dismisses the QR panel.
func (s *Session) CloseQR(ctx context.Context) (View, error) {
	return s.transition(ctx, func(m *Machine) error {
		m.CloseQR()
		return nil
	})
}

func (s *Session) transition(ctx context.Context, fn func(*Machine) error) (View, error) {
	var v View
	err := s.do(ctx, func(m *Machine) error {
		err := fn(m)
		v = m.View()
		if err != nil {
			metrics.IntakeRejected.WithLabelValues(m.Step().String()).Inc()
		}
		return err
	})
	return v, err
}

// QRImage renders the QR code for the draft's current amount.
func (s *Session) QRImage(ctx context.Context, size int) ([]byte, error) {
	var png []byte
	err := s.do(ctx, func(m *Machine) error {
		var err error
		png, err = m.QRImage(size)
		return err
	})
	return png, err
}

// Submit records the confirmed draft. The ledger call runs off the session
// goroutine; its outcome comes back through the inbox. A second Submit while
// one is outstanding fails with ErrSubmitInFlight.
func (s *Session) Submit(ctx context.Context) (*domain.Donation, View, error) {
	waiter := make(chan submitResult, 1)
	err := s.do(ctx, func(m *Machine) error {
		donation, err := m.BeginSubmit()
		if err != nil {
			return err
		}
		go s.record(donation, waiter)
		return nil
	})
	if err != nil {
		v, _ := s.View(ctx)
		return nil, v, err
	}
	select {
	case res := <-waiter:
		v, _ := s.View(ctx)
		return res.donation, v, res.err
	case <-ctx.Done():
		return nil, View{}, ctx.Err()
	}
}

func (s *Session) record(donation *domain.Donation, waiter chan<- submitResult) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	recorded, err := s.recorder.Create(ctx, donation)
	if err != nil {
		s.logger.Error().Err(err).Msg("intake submit failed")
	}
	delivered := s.post(func(m *Machine) {
		m.FinishSubmit(recorded, err)
		waiter <- submitResult{donation: recorded, err: err}
	})
	if !delivered {
		waiter <- submitResult{donation: recorded, err: err}
	}
}

// Close stops the loop and discards the draft. It is safe to call repeatedly.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Closed reports whether the session loop has stopped.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
