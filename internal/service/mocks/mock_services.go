package mocks

import (
	"context"
	"io"

	"carebook/internal/model"
	"carebook/internal/service"
	"carebook/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, creds model.Credentials) (*service.LoginResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, reg model.Registration) (*service.LoginResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockAuthService) Resolve(ctx context.Context, sessionID string) (*model.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) ListHospitals(ctx context.Context, query string) ([]model.Hospital, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Hospital), args.Error(1)
}

func (m *MockDirectoryService) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hospital), args.Error(1)
}

func (m *MockDirectoryService) Featured(ctx context.Context, n int) ([]model.Hospital, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Hospital), args.Error(1)
}

func (m *MockDirectoryService) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

func (m *MockDirectoryService) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doctor), args.Error(1)
}

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) List(ctx context.Context, userID string) ([]model.Appointment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Book(ctx context.Context, userID string, req model.BookingRequest) (*model.Appointment, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Get(ctx context.Context, userID, id string) (*model.Appointment, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Cancel(ctx context.Context, userID, id string) (*model.Appointment, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error) {
	args := m.Called(ctx, userID, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfileService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string, size int64) (*model.Avatar, error) {
	args := m.Called(ctx, userID, r, filename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Avatar), args.Error(1)
}

func (m *MockProfileService) AvatarURL(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockProfileService) OpenAvatar(ctx context.Context, userID string) (io.ReadCloser, storage.Stored, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, storage.Stored{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.Stored), args.Error(2)
}
