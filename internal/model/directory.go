package model

// Hospital is a care facility listed by the booking backend.
type Hospital struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Rating      float64  `json:"rating"`
	Specialties []string `json:"specialties,omitempty"`
}

// Doctor is a practitioner attached to a hospital.
type Doctor struct {
	ID             string   `json:"id"`
	HospitalID     string   `json:"hospitalId"`
	HospitalName   string   `json:"hospitalName,omitempty"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	Experience     int      `json:"experience"`
	Fee            float64  `json:"fee"`
	Rating         float64  `json:"rating"`
	Bio            string   `json:"bio,omitempty"`
	ImageURL       string   `json:"imageUrl,omitempty"`
	AvailableSlots []string `json:"availableSlots,omitempty"`
}

// DoctorFilter narrows a doctor listing. Empty fields are ignored.
type DoctorFilter struct {
	HospitalID     string
	Specialization string
	Query          string
}
