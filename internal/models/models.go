package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Live reports whether the booking still occupies its slot.
func (s BookingStatus) Live() bool {
	return s != BookingCancelled
}

type StaffBlockType string

const (
	StaffBlockVacation  StaffBlockType = "VACATION"
	StaffBlockSickLeave StaffBlockType = "SICK_LEAVE"
	StaffBlockTraining  StaffBlockType = "TRAINING"
	StaffBlockOther     StaffBlockType = "OTHER"
)

// Service is a bookable treatment. Availability holds the weekly schedule
// as a JSON string; empty means the service has no bookable hours at all.
type Service struct {
	ID              string `db:"service_id"`
	Name            string `db:"name"`
	DurationMinutes int    `db:"duration_minutes"`
	Availability    string `db:"availability"`
	IsActive        bool   `db:"is_active"`
}

// StaffBlock is a therapist's declared absence. Times are "HH:MM" within
// each day of the [StartDate, EndDate] date range.
type StaffBlock struct {
	ID        string         `db:"block_id"`
	StaffID   string         `db:"staff_id"`
	StartDate time.Time      `db:"start_date"`
	EndDate   time.Time      `db:"end_date"`
	StartTime string         `db:"start_time"`
	EndTime   string         `db:"end_time"`
	Type      StaffBlockType `db:"block_type"`
	Reason    string         `db:"reason"`
	IsActive  bool           `db:"is_active"`
}

type Booking struct {
	ID        string        `db:"booking_id"`
	ServiceID string        `db:"service_id"`
	StaffID   string        `db:"staff_id"`
	PatientID string        `db:"patient_id"`
	Date      time.Time     `db:"booking_date"`
	StartTime string        `db:"start_time"`
	EndTime   string        `db:"end_time"`
	Status    BookingStatus `db:"status"`
}
