// Package backend is the gateway to the booking REST backend. Every domain
// record the portal shows (hospitals, doctors, appointments, profiles) is
// read from and written to the backend through this interface.
package backend

import (
	"context"
	"net/url"

	"carebook/internal/apiclient"
	"carebook/internal/model"
)

// Backend defines the remote operations the portal relies on.
// It maps requests and responses only.
type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (*model.UserProfile, error)

	ListHospitals(ctx context.Context) ([]model.Hospital, error)
	GetHospital(ctx context.Context, id string) (*model.Hospital, error)

	ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)

	ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, a model.NewAppointment) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (*model.Appointment, error)

	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error)
}

// REST implements Backend over the JSON API client.
type REST struct {
	api *apiclient.Client
}

// NewREST creates a new REST backend gateway.
func NewREST(api *apiclient.Client) *REST {
	return &REST{api: api}
}

var _ Backend = (*REST)(nil)

func (b *REST) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	var out model.AuthResult
	if err := b.api.Post(ctx, "/auth/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) Register(ctx context.Context, reg model.Registration) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := b.api.Post(ctx, "/auth/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	out := make([]model.Hospital, 0)
	if err := b.api.Get(ctx, "/hospitals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *REST) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	var out model.Hospital
	if err := b.api.Get(ctx, "/hospitals/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDoctors forwards the non-empty filter fields as query parameters.
func (b *REST) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	q := url.Values{}
	if f.HospitalID != "" {
		q.Set("hospitalId", f.HospitalID)
	}
	if f.Specialization != "" {
		q.Set("specialization", f.Specialization)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	out := make([]model.Doctor, 0)
	if err := b.api.Get(ctx, "/doctors", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *REST) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	var out model.Doctor
	if err := b.api.Get(ctx, "/doctors/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	out := make([]model.Appointment, 0)
	if err := b.api.Get(ctx, "/appointments", url.Values{"userId": {userID}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *REST) CreateAppointment(ctx context.Context, a model.NewAppointment) (*model.Appointment, error) {
	var out model.Appointment
	if err := b.api.Post(ctx, "/appointments", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	var out model.Appointment
	if err := b.api.Get(ctx, "/appointments/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) CancelAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	var out model.Appointment
	if err := b.api.Patch(ctx, "/appointments/"+id+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := b.api.Get(ctx, "/user/profile/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *REST) UpdateProfile(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := b.api.Put(ctx, "/user/profile/"+userID, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
