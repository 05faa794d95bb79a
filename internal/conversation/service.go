package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turnera/turnos-ai-platform/internal/appointments"
	"github.com/turnera/turnos-ai-platform/internal/dialog"
	"github.com/turnera/turnos-ai-platform/internal/observability/metrics"
	"github.com/turnera/turnos-ai-platform/internal/patients"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

// PatientStore is the patient persistence surface the service needs.
type PatientStore interface {
	GetOrCreateByPhone(ctx context.Context, orgID uuid.UUID, phone string) (*patients.Patient, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, patch *dialog.ProfilePatch) error
	Merge(ctx context.Context, fromID, intoID uuid.UUID) error
	FindByDNI(ctx context.Context, orgID uuid.UUID, dni string) (*dialog.ProfileSnapshot, error)
}

// Scheduler is the calendar surface the service needs.
type Scheduler interface {
	Active(ctx context.Context, patientID uuid.UUID) (*appointments.Appointment, error)
	OpenSlots(ctx context.Context, orgID uuid.UUID, from time.Time, days int, tz string) ([]dialog.CalendarSlot, error)
	Book(ctx context.Context, orgID, patientID uuid.UUID, slotISO string) (*appointments.Appointment, error)
	Reschedule(ctx context.Context, appointmentID uuid.UUID, slotISO string) (*appointments.Appointment, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID) error
}

// StateRepository persists the conversation pointer between turns.
type StateRepository interface {
	Load(ctx context.Context, patientID uuid.UUID) (StoredState, error)
	Save(ctx context.Context, patientID uuid.UUID, state string, data []byte) error
}

// ReplySender delivers one outbound reply. The menu, when present, is
// rendered by the sender for its channel.
type ReplySender interface {
	Send(ctx context.Context, to, reply string, menu *dialog.MenuTemplate) error
}

const replyFallbackUnavailable = "Disculpá, no te entendí 🙏. Escribí *menu* para ver las opciones."

const replySlotConflict = "Uy, justo se ocupó ese horario 😕. Escribí *menu* para elegir otro."

// Service runs one conversation turn end to end: load the patient and state,
// let the dialogue engine decide, execute its side effects, persist the next
// state and send the reply.
type Service struct {
	patients  PatientStore
	scheduler Scheduler
	states    StateRepository
	sender    ReplySender
	fallback  FallbackAgent
	locker    Locker
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger

	timezone      string
	category      dialog.BusinessCategory
	lookaheadDays int
	now           func() time.Time
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithFallbackAgent wires the generative agent for out-of-flow messages.
func WithFallbackAgent(agent FallbackAgent) ServiceOption {
	return func(s *Service) { s.fallback = agent }
}

// WithLocker serializes turns per conversation.
func WithLocker(locker Locker) ServiceOption {
	return func(s *Service) { s.locker = locker }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.ConversationMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithTimezone overrides the business timezone.
func WithTimezone(tz string) ServiceOption {
	return func(s *Service) {
		if tz != "" {
			s.timezone = tz
		}
	}
}

// WithCategory sets the business category driving the dialogue rules.
func WithCategory(c dialog.BusinessCategory) ServiceOption {
	return func(s *Service) {
		if c != "" {
			s.category = c
		}
	}
}

// WithLookaheadDays bounds how far ahead the calendar is offered.
func WithLookaheadDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.lookaheadDays = days
		}
	}
}

// WithServiceClock injects the time source for tests.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService wires the conversation processor.
func NewService(patientStore PatientStore, scheduler Scheduler, states StateRepository, sender ReplySender, logger *logging.Logger, opts ...ServiceOption) *Service {
	if patientStore == nil {
		panic("conversation: patient store cannot be nil")
	}
	if scheduler == nil {
		panic("conversation: scheduler cannot be nil")
	}
	if states == nil {
		panic("conversation: state repository cannot be nil")
	}
	if sender == nil {
		panic("conversation: reply sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Service{
		patients:      patientStore,
		scheduler:     scheduler,
		states:        states,
		sender:        sender,
		logger:        logger,
		timezone:      "America/Argentina/Buenos_Aires",
		category:      dialog.CategoryHealth,
		lookaheadDays: 14,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process handles one inbound message. Errors bubble up so the queue can
// redeliver; user-visible failures become friendly replies instead.
func (s *Service) Process(ctx context.Context, msg InboundMessage) error {
	start := s.now()

	orgID, err := uuid.Parse(msg.OrgID)
	if err != nil {
		return fmt.Errorf("invalid org id %q: %v: %w", msg.OrgID, err, ErrPermanent)
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "conversation:"+msg.OrgID+":"+msg.From)
		if err != nil {
			return err
		}
		defer release()
	}

	patient, err := s.patients.GetOrCreateByPhone(ctx, orgID, msg.From)
	if err != nil {
		return fmt.Errorf("conversation: resolve patient: %w", err)
	}

	stored, err := s.states.Load(ctx, patient.ID)
	if err != nil {
		return fmt.Errorf("conversation: load state: %w", err)
	}
	state, ok := dialog.ParseState(stored.State)
	if !ok {
		state = dialog.StateWelcome
	}
	data := dialog.DecodeStateData(stored.Data, state)

	slots, err := s.scheduler.OpenSlots(ctx, orgID, s.now(), s.lookaheadDays, s.timezone)
	if err != nil {
		s.logger.Warn("calendar lookup failed, continuing without availability", "error", err, "org_id", msg.OrgID)
		slots = nil
	}

	var active *dialog.Appointment
	if apt, err := s.scheduler.Active(ctx, patient.ID); err != nil {
		s.logger.Warn("active appointment lookup failed", "error", err, "patient_id", patient.ID)
	} else if apt != nil {
		active = apt.Summary(s.timezone)
	}

	engine := dialog.NewEngine(dialog.WithDuplicateLookup(func(ctx context.Context, dni string) (*dialog.ProfileSnapshot, error) {
		return s.patients.FindByDNI(ctx, orgID, dni)
	}))

	res := engine.Handle(ctx, dialog.Input{
		Text:              msg.Body,
		State:             state,
		StateData:         data,
		Profile:           patient.Snapshot(),
		Slots:             slots,
		ActiveAppointment: active,
		Timezone:          s.timezone,
		Category:          s.category,
	})

	if !res.Handled {
		return s.fallbackTurn(ctx, msg, patient.Snapshot(), start)
	}

	patientID := patient.ID
	if res.MergeWithPatientID != "" {
		if target, err := uuid.Parse(res.MergeWithPatientID); err != nil {
			s.logger.Warn("merge target is not a uuid", "target", res.MergeWithPatientID)
		} else if err := s.patients.Merge(ctx, patientID, target); err != nil {
			return fmt.Errorf("conversation: merge patients: %w", err)
		} else {
			patientID = target
		}
	}

	if res.ProfilePatch != nil {
		if err := s.patients.ApplyPatch(ctx, patientID, res.ProfilePatch); err != nil {
			return fmt.Errorf("conversation: apply profile patch: %w", err)
		}
	}

	if res.Booking != nil {
		if conflicted, err := s.executeBooking(ctx, orgID, patientID, res.Booking); err != nil {
			return err
		} else if conflicted {
			res.Reply = replySlotConflict
			res.Menu = nil
			res.NextState = dialog.StateBookingMenu
			res.StateData = nil
		}
	}

	if res.Cancel != nil {
		aptID, err := uuid.Parse(res.Cancel.AppointmentID)
		if err != nil {
			return fmt.Errorf("cancel target %q is not a uuid: %w", res.Cancel.AppointmentID, ErrPermanent)
		}
		if err := s.scheduler.Cancel(ctx, aptID); err != nil {
			s.metrics.ObserveBooking("cancel", "error")
			return fmt.Errorf("conversation: cancel appointment: %w", err)
		}
		s.metrics.ObserveBooking("cancel", "ok")
	}

	var raw []byte
	if res.StateData != nil {
		if raw, err = res.StateData.Encode(); err != nil {
			return fmt.Errorf("conversation: encode state data: %w", err)
		}
	}
	if err := s.states.Save(ctx, patientID, string(res.NextState), raw); err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}

	if err := s.sender.Send(ctx, msg.From, res.Reply, res.Menu); err != nil {
		s.metrics.ObserveOutbound("error")
		return fmt.Errorf("conversation: send reply: %w", err)
	}
	s.metrics.ObserveOutbound("sent")
	s.metrics.ObserveHandled(string(res.NextState))
	s.metrics.ObserveProcessLatency(true, s.now().Sub(start).Seconds())
	return nil
}

// executeBooking runs the engine's booking instruction against the calendar.
// A lost race on the slot is reported as a conflict, not an error.
func (s *Service) executeBooking(ctx context.Context, orgID, patientID uuid.UUID, req *dialog.BookingRequest) (conflicted bool, err error) {
	switch req.Type {
	case dialog.BookingTypeReschedule:
		aptID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			return false, fmt.Errorf("reschedule target %q is not a uuid: %w", req.AppointmentID, ErrPermanent)
		}
		if _, err := s.scheduler.Reschedule(ctx, aptID, req.SlotISO); err != nil {
			if errors.Is(err, appointments.ErrSlotTaken) {
				s.metrics.ObserveBooking("reschedule", "conflict")
				return true, nil
			}
			s.metrics.ObserveBooking("reschedule", "error")
			return false, fmt.Errorf("conversation: reschedule appointment: %w", err)
		}
		s.metrics.ObserveBooking("reschedule", "ok")
		return false, nil
	default:
		if _, err := s.scheduler.Book(ctx, orgID, patientID, req.SlotISO); err != nil {
			if errors.Is(err, appointments.ErrSlotTaken) {
				s.metrics.ObserveBooking("book", "conflict")
				return true, nil
			}
			s.metrics.ObserveBooking("book", "error")
			return false, fmt.Errorf("conversation: book appointment: %w", err)
		}
		s.metrics.ObserveBooking("book", "ok")
		return false, nil
	}
}

// fallbackTurn routes an unhandled message to the generative agent, keeping
// the stored state untouched.
func (s *Service) fallbackTurn(ctx context.Context, msg InboundMessage, profile dialog.ProfileSnapshot, start time.Time) error {
	reply := replyFallbackUnavailable
	if s.fallback != nil {
		generated, err := s.fallback.Reply(ctx, msg, profile)
		if err != nil {
			s.logger.Warn("fallback agent failed", "error", err, "from", msg.From)
			s.metrics.ObserveFallback("error")
		} else {
			reply = generated
			s.metrics.ObserveFallback("ok")
		}
	} else {
		s.metrics.ObserveFallback("disabled")
	}

	if err := s.sender.Send(ctx, msg.From, reply, nil); err != nil {
		s.metrics.ObserveOutbound("error")
		return fmt.Errorf("conversation: send fallback reply: %w", err)
	}
	s.metrics.ObserveOutbound("sent")
	s.metrics.ObserveProcessLatency(false, s.now().Sub(start).Seconds())
	return nil
}
