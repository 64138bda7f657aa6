package mocks

import (
	"context"

	"carebook/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResult), args.Error(1)
}

func (m *MockBackend) Register(ctx context.Context, reg model.Registration) (*model.UserProfile, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockBackend) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Hospital), args.Error(1)
}

func (m *MockBackend) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hospital), args.Error(1)
}

func (m *MockBackend) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

func (m *MockBackend) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doctor), args.Error(1)
}

func (m *MockBackend) ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockBackend) CreateAppointment(ctx context.Context, a model.NewAppointment) (*model.Appointment, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockBackend) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockBackend) CancelAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockBackend) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockBackend) UpdateProfile(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error) {
	args := m.Called(ctx, userID, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}
