package model

import "time"

// Appointment statuses as reported by the backend.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
)

// DateLayout is the calendar date format used for appointment dates.
const DateLayout = "2006-01-02"

// Appointment is a booking between a patient and a doctor.
type Appointment struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DoctorID     string    `json:"doctorId"`
	HospitalID   string    `json:"hospitalId"`
	DoctorName   string    `json:"doctorName,omitempty"`
	HospitalName string    `json:"hospitalName,omitempty"`
	Date         string    `json:"date"`
	TimeSlot     string    `json:"timeSlot"`
	Reason       string    `json:"reason,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Closed reports whether the appointment can no longer change.
func (a Appointment) Closed() bool {
	return a.Status == AppointmentCancelled || a.Status == AppointmentCompleted
}

// BookingRequest is what a patient submits from the booking page.
type BookingRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Reason   string `json:"reason"`
}

// NewAppointment is the payload sent to the backend to create a booking.
type NewAppointment struct {
	UserID     string `json:"userId"`
	DoctorID   string `json:"doctorId"`
	HospitalID string `json:"hospitalId"`
	Date       string `json:"date"`
	TimeSlot   string `json:"timeSlot"`
	Reason     string `json:"reason,omitempty"`
}
