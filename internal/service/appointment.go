package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"carebook/internal/backend"
	"carebook/internal/model"
)

// MaxReasonLength bounds the free-text reason a patient can attach to a booking.
const MaxReasonLength = 500

// AppointmentService defines the booking use cases of a logged-in patient.
// userID is the raw backend id taken from the session; appointment and
// doctor ids are encrypted tokens.
type AppointmentService interface {
	List(ctx context.Context, userID string) ([]model.Appointment, error)
	Book(ctx context.Context, userID string, req model.BookingRequest) (*model.Appointment, error)
	// Get returns the confirmation of one of the user's appointments.
	Get(ctx context.Context, userID, id string) (*model.Appointment, error)
	Cancel(ctx context.Context, userID, id string) (*model.Appointment, error)
}

type appointmentService struct {
	api backend.Backend
	ids ids
	loc *time.Location
	now Clock
}

// NewAppointmentService constructs a new AppointmentService. Booking dates are
// interpreted in loc.
func NewAppointmentService(api backend.Backend, codec IDCodec, loc *time.Location, now Clock) AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &appointmentService{api: api, ids: ids{codec}, loc: loc, now: now}
}

// List returns the user's appointments ordered by date and time slot.
func (s *appointmentService) List(ctx context.Context, userID string) ([]model.Appointment, error) {
	list, err := s.api.ListAppointments(ctx, userID)
	if err != nil {
		return nil, fromBackend(err, "appointments")
	}

	out := make([]model.Appointment, 0, len(list))
	for _, a := range list {
		// Entries without an owner cannot be attributed to the user.
		if a.UserID != userID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	for i := range out {
		if err := s.seal(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *appointmentService) Book(ctx context.Context, userID string, req model.BookingRequest) (*model.Appointment, error) {
	doctorID, err := s.ids.open(req.DoctorID, "doctor id")
	if err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(req.Date), s.loc)
	if err != nil {
		return nil, invalid("date", "must be formatted as YYYY-MM-DD")
	}
	y, m, d := s.now().In(s.loc).Date()
	if date.Before(time.Date(y, m, d, 0, 0, 0, 0, s.loc)) {
		return nil, invalid("date", "must not be in the past")
	}
	slot := strings.TrimSpace(req.TimeSlot)
	if slot == "" {
		return nil, invalid("time slot", "is required")
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) > MaxReasonLength {
		return nil, invalid("reason", fmt.Sprintf("must be at most %d characters", MaxReasonLength))
	}

	doc, err := s.api.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, fromBackend(err, "doctor")
	}
	if len(doc.AvailableSlots) > 0 && !slices.Contains(doc.AvailableSlots, slot) {
		return nil, invalid("time slot", "is not offered by this doctor")
	}

	a, err := s.api.CreateAppointment(ctx, model.NewAppointment{
		UserID:     userID,
		DoctorID:   doctorID,
		HospitalID: doc.HospitalID,
		Date:       date.Format(model.DateLayout),
		TimeSlot:   slot,
		Reason:     reason,
	})
	if err != nil {
		return nil, fromBackend(err, "appointment")
	}
	if a.UserID == "" {
		a.UserID = userID
	}
	if a.DoctorName == "" {
		a.DoctorName = doc.Name
	}
	if a.HospitalName == "" {
		a.HospitalName = doc.HospitalName
	}
	if err := s.seal(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *appointmentService) Get(ctx context.Context, userID, id string) (*model.Appointment, error) {
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.seal(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *appointmentService) Cancel(ctx context.Context, userID, id string) (*model.Appointment, error) {
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if a.Closed() {
		return nil, newError(ErrConflict, "appointment is already "+a.Status, nil)
	}

	out, err := s.api.CancelAppointment(ctx, a.ID)
	if err != nil {
		return nil, fromBackend(err, "appointment")
	}
	if out.ID == "" {
		// Backend acknowledged without a body.
		cancelled := *a
		cancelled.Status = model.AppointmentCancelled
		out = &cancelled
	}
	if out.Status == "" {
		out.Status = model.AppointmentCancelled
	}
	if err := s.seal(out); err != nil {
		return nil, err
	}
	return out, nil
}

// owned loads an appointment and hides it unless it is recorded as
// belonging to userID.
func (s *appointmentService) owned(ctx context.Context, userID, id string) (*model.Appointment, error) {
	raw, err := s.ids.open(id, "appointment id")
	if err != nil {
		return nil, err
	}
	a, err := s.api.GetAppointment(ctx, raw)
	if err != nil {
		return nil, fromBackend(err, "appointment")
	}
	if a.UserID != userID {
		return nil, newError(ErrNotFound, "appointment not found", nil)
	}
	return a, nil
}

func (s *appointmentService) seal(a *model.Appointment) error {
	return s.ids.sealAll(&a.ID, &a.UserID, &a.DoctorID, &a.HospitalID)
}
