package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carebook/internal/http/middleware"
	"carebook/internal/model"
	"carebook/internal/service"
	serviceMocks "carebook/internal/service/mocks"
	"carebook/internal/storage"
)

const testCookie = "carebook_session"

var testSession = &model.Session{
	ID:           "7f0c7f3e-8f0e-4a8e-9d55-0d7e3c0f2a11",
	UserID:       "u1",
	BackendToken: "backend-token",
	ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
}

type testDeps struct {
	auth     *serviceMocks.MockAuthService
	dir      *serviceMocks.MockDirectoryService
	appts    *serviceMocks.MockAppointmentService
	profiles *serviceMocks.MockProfileService
	dbMock   sqlmock.Sqlmock
}

// newTestApp wires the full route table on mocks, with the auth mock
// accepting testSession.
func newTestApp(t *testing.T) (*fiber.App, testDeps) {
	t.Helper()
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	d := testDeps{
		auth:     new(serviceMocks.MockAuthService),
		dir:      new(serviceMocks.MockDirectoryService),
		appts:    new(serviceMocks.MockAppointmentService),
		profiles: new(serviceMocks.MockProfileService),
		dbMock:   dbMock,
	}
	d.auth.On("Resolve", mock.Anything, testSession.ID).Return(testSession, nil).Maybe()
	d.auth.On("Resolve", mock.Anything, mock.Anything).Return(nil, service.ErrUnauthorized).Maybe()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, db, Services{
		Auth:         d.auth,
		Directory:    d.dir,
		Appointments: d.appts,
		Profiles:     d.profiles,
	}, SessionCookie{Name: testCookie})
	return app, d
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: testCookie, Value: testSession.ID})
	return req
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	app, d := newTestApp(t)

	t.Run("healthy", func(t *testing.T) {
		d.dbMock.ExpectPing().WillReturnError(nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		d.dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
	})
}

func TestLivenessProbe(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("unknown route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		req.Header.Set(middleware.RequestIDHeader, "rid-1")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		assert.Equal(t, "rid-1", body.RequestID)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		a := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		a.Get("/boom", func(c *fiber.Ctx) error {
			return &service.Error{Kind: errors.New("pq: password authentication failed"), Message: "secret"}
		})

		resp, err := a.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.Equal(t, "internal server error", body.Error.Message)
	})
}

func TestRespondMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", &service.Error{Kind: service.ErrInvalidInput, Message: "date must not be in the past"}, 400, "INVALID_INPUT", "date must not be in the past"},
		{"bad id", &service.Error{Kind: service.ErrInvalidID, Message: "doctor id is not valid"}, 400, "INVALID_ID", "doctor id is not valid"},
		{"unauthorized", service.ErrUnauthorized, 401, "UNAUTHORIZED", "authentication required"},
		{"credentials", service.ErrInvalidCredentials, 401, "INVALID_CREDENTIALS", "email or password is incorrect"},
		{"not found", &service.Error{Kind: service.ErrNotFound, Message: "doctor not found"}, 404, "NOT_FOUND", "doctor not found"},
		{"conflict", &service.Error{Kind: service.ErrConflict, Message: "slot taken"}, 409, "CONFLICT", "slot taken"},
		{"upstream", &service.Error{Kind: service.ErrUpstream, Message: "raw backend text"}, 502, "UPSTREAM_ERROR", "booking service unavailable"},
		{"internal", errors.New("boom"), 500, "INTERNAL_ERROR", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respond(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("success sets cookie", func(t *testing.T) {
		app, d := newTestApp(t)
		d.auth.On("Login", mock.Anything, model.Credentials{Email: "ann@example.com", Password: "pw"}).
			Return(&service.LoginResult{Session: testSession, User: model.UserProfile{ID: "enc-u1", Name: "Ann"}}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", model.Credentials{Email: "ann@example.com", Password: "pw"}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, testCookie, cookies[0].Name)
		assert.Equal(t, testSession.ID, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

		var body authResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, testSession.ID, body.SessionID)
		assert.Equal(t, "enc-u1", body.User.ID)
		d.auth.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		app, d := newTestApp(t)
		d.auth.On("Login", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrInvalidCredentials, Message: "email or password is incorrect"}).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", model.Credentials{Email: "ann@example.com", Password: "x"}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
		assert.Empty(t, resp.Cookies())
	})

	t.Run("malformed body", func(t *testing.T) {
		app, _ := newTestApp(t)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Error.Code)
	})
}

func TestRegister(t *testing.T) {
	app, d := newTestApp(t)
	reg := model.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"}

	d.auth.On("Register", mock.Anything, reg).
		Return(&service.LoginResult{Session: testSession, User: model.UserProfile{ID: "enc-u1"}}, nil).Once()
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", reg))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	d.auth.On("Register", mock.Anything, reg).
		Return(nil, &service.Error{Kind: service.ErrConflict, Message: "an account with this email already exists"}).Once()
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/register", reg))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "an account with this email already exists", decodeError(t, resp).Error.Message)
}

func TestLogout(t *testing.T) {
	app, d := newTestApp(t)
	d.auth.On("Logout", mock.Anything, testSession.ID).Return(nil).Once()

	resp, err := app.Test(authed(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
	d.auth.AssertExpectations(t)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDirectoryRoutes(t *testing.T) {
	app, d := newTestApp(t)
	d.dir.On("Featured", mock.Anything, 3).Return([]model.Hospital{{ID: "h", Name: "City"}}, nil).Once()
	d.dir.On("ListHospitals", mock.Anything, "lake").Return([]model.Hospital{{ID: "h2"}}, nil).Once()
	d.dir.On("GetHospital", mock.Anything, "enc-h1").Return(&model.Hospital{ID: "enc-h1"}, nil).Once()
	d.dir.On("ListDoctors", mock.Anything, model.DoctorFilter{HospitalID: "enc-h1", Specialization: "Cardiology"}).
		Return([]model.Doctor{{ID: "d"}}, nil).Twice()
	d.dir.On("GetDoctor", mock.Anything, "bad").
		Return(nil, &service.Error{Kind: service.ErrInvalidID, Message: "doctor id is not valid"}).Once()

	tests := []struct {
		target string
		status int
	}{
		{"/api/landing?limit=3", 200},
		{"/api/landing?limit=0", 400},
		{"/api/hospitals?q=lake", 200},
		{"/api/hospitals/enc-h1", 200},
		{"/api/hospitals/enc-h1/doctors?specialization=Cardiology", 200},
		{"/api/doctors?hospital=enc-h1&specialization=Cardiology", 200},
		{"/api/doctors/bad", 400},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.target)
	}
	d.dir.AssertExpectations(t)
}

func TestAppointmentRoutes(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		app, d := newTestApp(t)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/appointments", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
		d.appts.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("bearer session", func(t *testing.T) {
		app, d := newTestApp(t)
		d.appts.On("List", mock.Anything, "u1").Return([]model.Appointment{{ID: "a"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
		req.Header.Set("Authorization", "Bearer "+testSession.ID)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var list []model.Appointment
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Len(t, list, 1)
	})

	t.Run("book", func(t *testing.T) {
		app, d := newTestApp(t)
		in := model.BookingRequest{DoctorID: "enc-d1", Date: "2030-01-02", TimeSlot: "09:00"}
		d.appts.On("Book", mock.Anything, "u1", in).Return(&model.Appointment{ID: "enc-a1", Status: model.AppointmentPending}, nil).Once()

		resp, err := app.Test(authed(jsonRequest(http.MethodPost, "/api/appointments", in)))
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		d.appts.AssertExpectations(t)
	})

	t.Run("get and cancel", func(t *testing.T) {
		app, d := newTestApp(t)
		d.appts.On("Get", mock.Anything, "u1", "enc-a1").Return(&model.Appointment{ID: "enc-a1"}, nil).Once()
		d.appts.On("Cancel", mock.Anything, "u1", "enc-a1").
			Return(nil, &service.Error{Kind: service.ErrConflict, Message: "appointment is already cancelled"}).Once()

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/api/appointments/enc-a1", nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(authed(httptest.NewRequest(http.MethodPost, "/api/appointments/enc-a1/cancel", nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "appointment is already cancelled", decodeError(t, resp).Error.Message)
	})
}

func TestProfileRoutes(t *testing.T) {
	t.Run("get and update", func(t *testing.T) {
		app, d := newTestApp(t)
		name := "Ann B"
		d.profiles.On("Get", mock.Anything, "u1").Return(&model.UserProfile{ID: "enc-u1", Name: "Ann"}, nil).Once()
		d.profiles.On("Update", mock.Anything, "u1", model.ProfileUpdate{Name: &name}).
			Return(&model.UserProfile{ID: "enc-u1", Name: name}, nil).Once()

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/api/profile", nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(authed(jsonRequest(http.MethodPut, "/api/profile", map[string]string{"name": name})))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var p model.UserProfile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
		assert.Equal(t, name, p.Name)
		d.profiles.AssertExpectations(t)
	})

	t.Run("avatar url", func(t *testing.T) {
		app, d := newTestApp(t)
		d.profiles.On("AvatarURL", mock.Anything, "u1").Return("https://minio/avatars/x.png?sig", nil).Once()

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/api/profile/avatar", nil)))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body avatarURLResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "https://minio/avatars/x.png?sig", body.URL)
	})

	t.Run("avatar image", func(t *testing.T) {
		app, d := newTestApp(t)
		d.profiles.On("OpenAvatar", mock.Anything, "u1").
			Return(io.NopCloser(strings.NewReader("png-bytes")), storage.Stored{ContentType: "image/png", Size: 9, ETag: "abc"}, nil).Once()

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/api/profile/avatar/image", nil)))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Equal(t, `"abc"`, resp.Header.Get("ETag"))
		b, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "png-bytes", string(b))
	})

	t.Run("no avatar", func(t *testing.T) {
		app, d := newTestApp(t)
		d.profiles.On("OpenAvatar", mock.Anything, "u1").
			Return(nil, storage.Stored{}, &service.Error{Kind: service.ErrNotFound, Message: "no profile picture"}).Once()

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodGet, "/api/profile/avatar/image", nil)))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "no profile picture", decodeError(t, resp).Error.Message)
	})
}

func imageUpload(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadAvatar(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		app, d := newTestApp(t)
		body, ct := imageUpload(t, "image/png")
		d.profiles.On("UploadAvatar", mock.Anything, "u1", mock.Anything, "me.png", "image/png", int64(9)).
			Return(&model.Avatar{UserID: "u1", StoragePath: "avatars/x.png", ContentType: "image/png", Size: 9}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(authed(req))
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, "image/png", out["content_type"])
		assert.Equal(t, "/api/profile/avatar/image", out["image_url"])
		assert.NotContains(t, out, "user_id")
		assert.NotContains(t, out, "storage_path")
		assert.NotContains(t, string(raw), `"u1"`)
		assert.NotContains(t, string(raw), "avatars/x.png")
		d.profiles.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		app, _ := newTestApp(t)

		resp, err := app.Test(authed(httptest.NewRequest(http.MethodPost, "/api/profile/avatar", nil)))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("rejected type", func(t *testing.T) {
		app, d := newTestApp(t)
		body, ct := imageUpload(t, "application/pdf")
		d.profiles.On("UploadAvatar", mock.Anything, "u1", mock.Anything, "me.png", "application/pdf", int64(9)).
			Return(nil, &service.Error{Kind: service.ErrInvalidInput, Message: "file must be an image"}).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(authed(req))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errBody := decodeError(t, resp)
		assert.Equal(t, "INVALID_INPUT", errBody.Error.Code)
		assert.Equal(t, "file must be an image", errBody.Error.Message)
	})
}
