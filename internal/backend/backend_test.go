package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook/internal/apiclient"
	"carebook/internal/config"
	"carebook/internal/model"
)

// route is one canned backend response keyed by "METHOD /path".
type route struct {
	status int
	body   any
	check  func(t *testing.T, r *http.Request)
}

func newTestBackend(t *testing.T, routes map[string]route) *REST {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no route"}`))
			return
		}
		if rt.check != nil {
			rt.check(t, r)
		}
		if rt.status == 0 {
			rt.status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		if rt.body != nil {
			_ = json.NewEncoder(w).Encode(rt.body)
		}
	}))
	t.Cleanup(srv.Close)

	api, err := apiclient.New(config.BackendConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewREST(api)
}

func TestREST_Auth(t *testing.T) {
	b := newTestBackend(t, map[string]route{
		"POST /auth/login": {
			body: model.AuthResult{Token: "tok", User: model.UserProfile{ID: "u1", Email: "a@b.c"}},
			check: func(t *testing.T, r *http.Request) {
				var in model.Credentials
				require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, "a@b.c", in.Email)
				assert.Equal(t, "pw", in.Password)
			},
		},
		"POST /auth/register": {
			status: http.StatusCreated,
			body:   model.UserProfile{ID: "u2", Name: "Ann"},
		},
	})

	res, err := b.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "u1", res.User.ID)

	user, err := b.Register(context.Background(), model.Registration{Name: "Ann", Email: "ann@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
}

func TestREST_Directory(t *testing.T) {
	b := newTestBackend(t, map[string]route{
		"GET /hospitals":    {body: []model.Hospital{{ID: "h1", Name: "City"}, {ID: "h2", Name: "Lake"}}},
		"GET /hospitals/h1": {body: model.Hospital{ID: "h1", Name: "City"}},
		"GET /doctors": {
			body: []model.Doctor{{ID: "d1", HospitalID: "h1"}},
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "h1", r.URL.Query().Get("hospitalId"))
				assert.Equal(t, "Cardiology", r.URL.Query().Get("specialization"))
				assert.False(t, r.URL.Query().Has("q"))
			},
		},
		"GET /doctors/d1": {body: model.Doctor{ID: "d1", Name: "Dr. Who"}},
	})
	ctx := context.Background()

	hs, err := b.ListHospitals(ctx)
	require.NoError(t, err)
	assert.Len(t, hs, 2)

	h, err := b.GetHospital(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "City", h.Name)

	ds, err := b.ListDoctors(ctx, model.DoctorFilter{HospitalID: "h1", Specialization: "Cardiology"})
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	d, err := b.GetDoctor(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Who", d.Name)

	_, err = b.GetDoctor(ctx, "nope")
	assert.True(t, apiclient.IsStatus(err, http.StatusNotFound))
}

func TestREST_Appointments(t *testing.T) {
	b := newTestBackend(t, map[string]route{
		"GET /appointments": {
			body: []model.Appointment{{ID: "a1", UserID: "u1"}},
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "u1", r.URL.Query().Get("userId"))
			},
		},
		"POST /appointments": {
			status: http.StatusCreated,
			body:   model.Appointment{ID: "a2", Status: model.AppointmentPending},
			check: func(t *testing.T, r *http.Request) {
				var in model.NewAppointment
				require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, "d1", in.DoctorID)
				assert.Equal(t, "h1", in.HospitalID)
			},
		},
		"GET /appointments/a1":          {body: model.Appointment{ID: "a1"}},
		"PATCH /appointments/a1/cancel": {body: model.Appointment{ID: "a1", Status: model.AppointmentCancelled}},
	})
	ctx := context.Background()

	list, err := b.ListAppointments(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	created, err := b.CreateAppointment(ctx, model.NewAppointment{UserID: "u1", DoctorID: "d1", HospitalID: "h1", Date: "2030-01-02", TimeSlot: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "a2", created.ID)

	got, err := b.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	cancelled, err := b.CancelAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, cancelled.Status)
}

func TestREST_Profile(t *testing.T) {
	name := "Ann B"
	b := newTestBackend(t, map[string]route{
		"GET /user/profile/u1": {body: model.UserProfile{ID: "u1", Name: "Ann"}},
		"PUT /user/profile/u1": {
			body: model.UserProfile{ID: "u1", Name: name},
			check: func(t *testing.T, r *http.Request) {
				var in map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, name, in["name"])
				assert.NotContains(t, in, "email")
			},
		},
	})
	ctx := context.Background()

	p, err := b.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.Name)

	p, err = b.UpdateProfile(ctx, "u1", model.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
}
