package service

import (
	"context"
	"sort"
	"strings"

	"carebook/internal/backend"
	"carebook/internal/model"
)

// DefaultFeaturedCount is used by Featured when n is not positive.
const DefaultFeaturedCount = 6

// DirectoryService defines the hospital and doctor browsing use cases.
// All ids it accepts and returns are encrypted tokens.
type DirectoryService interface {
	ListHospitals(ctx context.Context, query string) ([]model.Hospital, error)
	GetHospital(ctx context.Context, id string) (*model.Hospital, error)
	// Featured returns the n best rated hospitals for the landing page.
	Featured(ctx context.Context, n int) ([]model.Hospital, error)
	ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
}

type directoryService struct {
	api backend.Backend
	ids ids
}

// NewDirectoryService constructs a new DirectoryService.
func NewDirectoryService(api backend.Backend, codec IDCodec) DirectoryService {
	return &directoryService{api: api, ids: ids{codec}}
}

// ListHospitals filters on name or city, case-insensitively, when query is set.
func (s *directoryService) ListHospitals(ctx context.Context, query string) ([]model.Hospital, error) {
	all, err := s.api.ListHospitals(ctx)
	if err != nil {
		return nil, fromBackend(err, "hospitals")
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Hospital, 0, len(all))
	for _, h := range all {
		if q != "" && !strings.Contains(strings.ToLower(h.Name), q) && !strings.Contains(strings.ToLower(h.City), q) {
			continue
		}
		if err := s.ids.sealAll(&h.ID); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *directoryService) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	raw, err := s.ids.open(id, "hospital id")
	if err != nil {
		return nil, err
	}
	h, err := s.api.GetHospital(ctx, raw)
	if err != nil {
		return nil, fromBackend(err, "hospital")
	}
	if err := s.ids.sealAll(&h.ID); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *directoryService) Featured(ctx context.Context, n int) ([]model.Hospital, error) {
	if n <= 0 {
		n = DefaultFeaturedCount
	}
	all, err := s.ListHospitals(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].Name < all[j].Name
	})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// ListDoctors accepts an encrypted hospital id in the filter.
func (s *directoryService) ListDoctors(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	if f.HospitalID != "" {
		raw, err := s.ids.open(f.HospitalID, "hospital id")
		if err != nil {
			return nil, err
		}
		f.HospitalID = raw
	}
	f.Specialization = strings.TrimSpace(f.Specialization)
	f.Query = strings.TrimSpace(f.Query)

	docs, err := s.api.ListDoctors(ctx, f)
	if err != nil {
		return nil, fromBackend(err, "doctors")
	}
	for i := range docs {
		if err := s.ids.sealAll(&docs[i].ID, &docs[i].HospitalID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (s *directoryService) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	raw, err := s.ids.open(id, "doctor id")
	if err != nil {
		return nil, err
	}
	d, err := s.api.GetDoctor(ctx, raw)
	if err != nil {
		return nil, fromBackend(err, "doctor")
	}
	if err := s.ids.sealAll(&d.ID, &d.HospitalID); err != nil {
		return nil, err
	}
	return d, nil
}
