package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"clinic-service/api"
	"clinic-service/pkg/response"
)

type fakeLocker struct {
	granted bool
	locks   []string
	unlocks []string
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.locks = append(f.locks, key)
	return f.granted, nil
}

func (f *fakeLocker) Unlock(_ context.Context, key string) error {
	f.unlocks = append(f.unlocks, key)
	return nil
}

func TestCreateBookingRejectsUnavailableSlot(t *testing.T) {
	store := physioStore()
	locker := &fakeLocker{granted: true}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), store, locker)

	// 08:00 is outside the monday 09:00-12:00 window.
	_, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ServiceID: "svc-1",
		StaffID:   "staff-1",
		PatientID: "pat-1",
		Date:      monday.Format(dateLayout),
		StartTime: "08:00",
	})

	if !errors.Is(err, response.ErrSlotNotAvailable) {
		t.Fatalf("want ErrSlotNotAvailable, got %v", err)
	}
	if len(locker.unlocks) != len(locker.locks) {
		t.Errorf("every acquired lock must be released: %d locks, %d unlocks", len(locker.locks), len(locker.unlocks))
	}
}

func TestCreateBookingLockedSlot(t *testing.T) {
	store := physioStore()
	locker := &fakeLocker{granted: false}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), store, locker)

	_, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ServiceID: "svc-1",
		StaffID:   "staff-1",
		PatientID: "pat-1",
		Date:      monday.Format(dateLayout),
		StartTime: "09:00",
	})

	if !errors.Is(err, response.ErrLocked) {
		t.Fatalf("want ErrLocked, got %v", err)
	}
	if len(locker.unlocks) != 0 {
		t.Errorf("a lock that was never acquired must not be released")
	}
}

func TestCreateBookingRejectsMalformedInput(t *testing.T) {
	store := physioStore()
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), store, &fakeLocker{granted: true})

	cases := []struct {
		name string
		req  api.BookingRequest
	}{
		{"bad date", api.BookingRequest{ServiceID: "svc-1", StaffID: "staff-1", PatientID: "p", Date: "15-08-2025", StartTime: "09:00"}},
		{"bad time", api.BookingRequest{ServiceID: "svc-1", StaffID: "staff-1", PatientID: "p", Date: monday.Format(dateLayout), StartTime: "25:99"}},
	}

	for _, tc := range cases {
		if _, err := svc.CreateBooking(context.Background(), &tc.req); err == nil {
			t.Errorf("%s: want error", tc.name)
		}
	}
}

func TestValidateAvailability(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"absent", "", false},
		{"valid", `{"monday": {"enabled": true, "timeSlots": [{"start": "09:00", "end": "12:00"}]}}`, false},
		{"not json", "not json", true},
		{"inverted interval", `{"monday": {"enabled": true, "timeSlots": [{"start": "12:00", "end": "09:00"}]}}`, true},
		{"unknown day", `{"someday": {"enabled": true, "timeSlots": []}}`, true},
	}

	for _, tc := range cases {
		_, err := validateAvailability(json.RawMessage(tc.raw))
		if tc.wantErr && !errors.Is(err, response.ErrInvalidSchedule) {
			t.Errorf("%s: want ErrInvalidSchedule, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestStaffBlockFromRequest(t *testing.T) {
	valid := api.TimeBlockRequest{
		StaffID:   "staff-1",
		StartDate: "2025-08-18",
		EndDate:   "2025-08-20",
		StartTime: "09:00",
		EndTime:   "17:00",
		Type:      "VACATION",
		IsActive:  true,
	}

	if _, err := staffBlockFromRequest(&valid); err != nil {
		t.Fatalf("valid request: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(r *api.TimeBlockRequest)
	}{
		{"bad start_date", func(r *api.TimeBlockRequest) { r.StartDate = "18.08.2025" }},
		{"end before start", func(r *api.TimeBlockRequest) { r.EndDate = "2025-08-01" }},
		{"bad start_time", func(r *api.TimeBlockRequest) { r.StartTime = "9am" }},
		{"bad type", func(r *api.TimeBlockRequest) { r.Type = "HOLIDAY" }},
	}

	for _, m := range mutations {
		req := valid
		m.mutate(&req)
		if _, err := staffBlockFromRequest(&req); err == nil {
			t.Errorf("%s: want error", m.name)
		}
	}
}
