package api

import "encoding/json"

type ServiceRequest struct {
	Name            string          `json:"name"`
	DurationMinutes int             `json:"duration_minutes"`
	Availability    json.RawMessage `json:"availability,omitempty"`
	IsActive        bool            `json:"is_active"`
}

type ServiceResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"duration_minutes"`
	Availability    json.RawMessage `json:"availability,omitempty"`
	IsActive        bool            `json:"is_active"`
}

type TimeBlockRequest struct {
	StaffID   string `json:"staff_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Type      string `json:"type"`
	Reason    string `json:"reason,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type TimeBlockResponse struct {
	ID        string `json:"id"`
	StaffID   string `json:"staff_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Type      string `json:"type"`
	Reason    string `json:"reason,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type BookingRequest struct {
	ServiceID string `json:"service_id"`
	StaffID   string `json:"staff_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type BookingResponse struct {
	ID        string `json:"id"`
	ServiceID string `json:"service_id"`
	StaffID   string `json:"staff_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

type RescheduleRequest struct {
	BookingID string `json:"booking_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

// Slot is the atomic availability answer for one candidate start time.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type AvailabilityResponse struct {
	Date            string `json:"date"`
	ServiceID       string `json:"serviceId"`
	StaffID         string `json:"staffId"`
	ServiceDuration int    `json:"serviceDuration"`
	Slots           []Slot `json:"slots"`
}
