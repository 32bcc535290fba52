package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"clinic-service/api"
	"clinic-service/internal/models"
	"clinic-service/pkg/response"
)

// fakeStore implements Store in memory. Staff reads are counted so tests
// can assert the short-circuit, and can be forced to fail to exercise the
// degrade path.
type fakeStore struct {
	services map[string]*models.Service
	blocks   []*models.StaffBlock
	bookings []*models.Booking

	staffReadErr error
	staffReads   int
}

func (f *fakeStore) GetService(_ context.Context, id string) (*models.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return svc, nil
}

func (f *fakeStore) ListActiveStaffBlocks(_ context.Context, staffID string, date time.Time) ([]*models.StaffBlock, error) {
	f.staffReads++
	if f.staffReadErr != nil {
		return nil, f.staffReadErr
	}

	var out []*models.StaffBlock
	for _, b := range f.blocks {
		if b.StaffID == staffID && b.IsActive && !date.Before(b.StartDate) && !date.After(b.EndDate) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLiveBookings(_ context.Context, staffID string, date time.Time) ([]*models.Booking, error) {
	f.staffReads++
	if f.staffReadErr != nil {
		return nil, f.staffReadErr
	}

	var out []*models.Booking
	for _, b := range f.bookings {
		if b.StaffID == staffID && b.Status.Live() && sameDate(b.Date, date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) BeginTx(context.Context) (*sql.Tx, error) {
	return nil, errors.New("not supported in fake")
}
func (f *fakeStore) CreateService(context.Context, *models.Service) (string, error) {
	return "", errors.New("not supported in fake")
}
func (f *fakeStore) UpdateService(context.Context, *models.Service) error  { return nil }
func (f *fakeStore) DeleteService(context.Context, string) error           { return nil }
func (f *fakeStore) CreateStaffBlock(context.Context, *models.StaffBlock) (string, error) {
	return "", errors.New("not supported in fake")
}
func (f *fakeStore) GetStaffBlock(context.Context, string) (*models.StaffBlock, error) {
	return nil, response.ErrNotFound
}
func (f *fakeStore) UpdateStaffBlock(context.Context, *models.StaffBlock) error { return nil }
func (f *fakeStore) DeleteStaffBlock(context.Context, string) error             { return nil }
func (f *fakeStore) CreateBooking(context.Context, *sql.Tx, *models.Booking) (string, error) {
	return "", errors.New("not supported in fake")
}
func (f *fakeStore) UpdateBookingStatus(context.Context, string, models.BookingStatus) error {
	return nil
}
func (f *fakeStore) RescheduleBooking(context.Context, *sql.Tx, string, time.Time, string, string) error {
	return nil
}
func (f *fakeStore) DeleteBooking(context.Context, string) error { return nil }

const weekdaySchedule = `{
	"monday": {"enabled": true, "timeSlots": [{"start": "09:00", "end": "12:00"}]},
	"tuesday": {"enabled": false, "timeSlots": []}
}`

// 2025-08-18 is a Monday.
var (
	monday  = time.Date(2025, 8, 18, 0, 0, 0, 0, time.Local)
	tuesday = time.Date(2025, 8, 19, 0, 0, 0, 0, time.Local)
)

func newTestService(store *fakeStore) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, store, nil)
}

func physioStore() *fakeStore {
	return &fakeStore{
		services: map[string]*models.Service{
			"svc-1": {ID: "svc-1", Name: "Physiotherapy", DurationMinutes: 60, Availability: weekdaySchedule, IsActive: true},
		},
	}
}

func slotTimes(slots []api.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func availableTimes(slots []api.Slot) []string {
	var out []string
	for _, s := range slots {
		if s.Available {
			out = append(out, s.Time)
		}
	}
	return out
}

func TestResolveBookableSlotsOpenDay(t *testing.T) {
	store := physioStore()
	svc := newTestService(store)

	result, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
	if err != nil {
		t.Fatalf("ResolveBookableSlots: %v", err)
	}

	wantTimes := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if !reflect.DeepEqual(slotTimes(result.Slots), wantTimes) {
		t.Errorf("slot times: want %v, got %v", wantTimes, slotTimes(result.Slots))
	}
	if !reflect.DeepEqual(availableTimes(result.Slots), wantTimes) {
		t.Errorf("with no blocks or bookings every slot must be available, got %v", result.Slots)
	}
	if result.ServiceDuration != 60 {
		t.Errorf("service duration: want 60, got %d", result.ServiceDuration)
	}
}

func TestResolveBookableSlotsClosedDayShortCircuits(t *testing.T) {
	store := physioStore()
	svc := newTestService(store)

	result, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", tuesday)
	if err != nil {
		t.Fatalf("ResolveBookableSlots: %v", err)
	}

	if len(result.Slots) != 0 {
		t.Errorf("closed day must yield no slots, got %v", result.Slots)
	}
	if store.staffReads != 0 {
		t.Errorf("closed day must not query staff data, got %d reads", store.staffReads)
	}
}

func TestResolveBookableSlotsFailsClosedOnBrokenSchedule(t *testing.T) {
	for _, availability := range []string{"", "not json"} {
		store := physioStore()
		store.services["svc-1"].Availability = availability
		svc := newTestService(store)

		result, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
		if err != nil {
			t.Fatalf("availability=%q: unexpected error: %v", availability, err)
		}
		if len(result.Slots) != 0 {
			t.Errorf("availability=%q: broken schedule must fail closed, got %v", availability, result.Slots)
		}
	}
}

func TestResolveBookableSlotsUnknownService(t *testing.T) {
	svc := newTestService(physioStore())

	_, err := svc.ResolveBookableSlots(context.Background(), "nope", "staff-1", monday)
	if !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResolveBookableSlotsExcludesStaffBlocks(t *testing.T) {
	store := physioStore()
	store.blocks = []*models.StaffBlock{{
		ID:        "blk-1",
		StaffID:   "staff-1",
		StartDate: monday,
		EndDate:   monday,
		StartTime: "10:00",
		EndTime:   "11:00",
		Type:      models.StaffBlockTraining,
		IsActive:  true,
	}}
	svc := newTestService(store)

	result, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
	if err != nil {
		t.Fatalf("ResolveBookableSlots: %v", err)
	}

	// 60-minute service: every slot overlapping [10:00,11:00) goes dark,
	// including 09:30 whose treatment would run into the block.
	want := []string{"09:00", "11:00"}
	if got := availableTimes(result.Slots); !reflect.DeepEqual(got, want) {
		t.Errorf("available: want %v, got %v", want, got)
	}
}

func TestResolveBookableSlotsExcludesLiveBookings(t *testing.T) {
	store := physioStore()
	store.bookings = []*models.Booking{
		{ID: "bk-1", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: models.BookingConfirmed},
		{ID: "bk-2", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "11:00", EndTime: "12:00", Status: models.BookingCancelled},
	}
	svc := newTestService(store)

	result, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
	if err != nil {
		t.Fatalf("ResolveBookableSlots: %v", err)
	}

	// bk-1 shades 09:00 and 09:30; cancelled bk-2 must not shade 11:00.
	want := []string{"10:00", "10:30", "11:00"}
	if got := availableTimes(result.Slots); !reflect.DeepEqual(got, want) {
		t.Errorf("available: want %v, got %v", want, got)
	}
}

// A staff-data outage degrades to service-only availability instead of
// blocking all bookings. This is the opposite of the schedule-parse case,
// which fails closed; the asymmetry is deliberate.
func TestResolveBookableSlotsFailsOpenOnStaffQueryError(t *testing.T) {
	store := physioStore()
	store.staffReadErr = errors.New("connection refused")
	store.bookings = []*models.Booking{
		{ID: "bk-1", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: models.BookingConfirmed},
	}
	svc := newTestService(store)

	result, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
	if err != nil {
		t.Fatalf("staff query failure must not fail the operation: %v", err)
	}

	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if got := availableTimes(result.Slots); !reflect.DeepEqual(got, want) {
		t.Errorf("degraded mode must offer every generated slot, want %v, got %v", want, got)
	}
}

func TestResolveBookableSlotsIdempotent(t *testing.T) {
	store := physioStore()
	store.blocks = []*models.StaffBlock{{
		ID: "blk-1", StaffID: "staff-1", StartDate: monday, EndDate: monday,
		StartTime: "09:00", EndTime: "10:00", Type: models.StaffBlockVacation, IsActive: true,
	}}
	svc := newTestService(store)

	first, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.ResolveBookableSlots(context.Background(), "svc-1", "staff-1", monday)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs must yield identical results:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestResolveRescheduleSlotsSelfExemption(t *testing.T) {
	store := physioStore()
	store.bookings = []*models.Booking{
		{ID: "bk-1", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "10:00", EndTime: "11:00", Status: models.BookingConfirmed},
	}
	svc := newTestService(store)

	result, err := svc.ResolveRescheduleSlots(context.Background(), "bk-1", monday)
	if err != nil {
		t.Fatalf("ResolveRescheduleSlots: %v", err)
	}

	// On the original date the booking's own reservation must not shade
	// any slot, its own 10:00 included.
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if got := availableTimes(result.Slots); !reflect.DeepEqual(got, want) {
		t.Errorf("available: want %v, got %v", want, got)
	}
}

func TestResolveRescheduleSlotsExemptionDropsOnDateChange(t *testing.T) {
	nextMonday := monday.AddDate(0, 0, 7)

	store := physioStore()
	store.bookings = []*models.Booking{
		{ID: "bk-1", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "10:00", EndTime: "11:00", Status: models.BookingConfirmed},
		{ID: "bk-2", ServiceID: "svc-1", StaffID: "staff-1", Date: nextMonday, StartTime: "10:00", EndTime: "11:00", Status: models.BookingConfirmed},
	}
	svc := newTestService(store)

	result, err := svc.ResolveRescheduleSlots(context.Background(), "bk-1", nextMonday)
	if err != nil {
		t.Fatalf("ResolveRescheduleSlots: %v", err)
	}

	// Different date: bk-1 gets no special treatment and bk-2 shades its
	// range as usual. 09:00 ends exactly as bk-2 begins, so it survives.
	want := []string{"09:00", "11:00"}
	if got := availableTimes(result.Slots); !reflect.DeepEqual(got, want) {
		t.Errorf("available: want %v, got %v", want, got)
	}
}

func TestResolveRescheduleSlotsOtherBookingsStillShade(t *testing.T) {
	store := physioStore()
	store.bookings = []*models.Booking{
		{ID: "bk-1", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "10:00", EndTime: "11:00", Status: models.BookingConfirmed},
		{ID: "bk-other", ServiceID: "svc-1", StaffID: "staff-2", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: models.BookingConfirmed},
		{ID: "bk-same-staff", ServiceID: "svc-1", StaffID: "staff-1", Date: monday, StartTime: "11:00", EndTime: "12:00", Status: models.BookingConfirmed},
	}
	svc := newTestService(store)

	result, err := svc.ResolveRescheduleSlots(context.Background(), "bk-1", monday)
	if err != nil {
		t.Fatalf("ResolveRescheduleSlots: %v", err)
	}

	// Only bk-1 is exempt; bk-same-staff keeps shading 10:30 and 11:00.
	want := []string{"09:00", "09:30", "10:00"}
	if got := availableTimes(result.Slots); !reflect.DeepEqual(got, want) {
		t.Errorf("available: want %v, got %v", want, got)
	}
}
