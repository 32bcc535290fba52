package service

import (
	"clinic-service/api"
	"clinic-service/internal/lock"
	"clinic-service/internal/models"
	"clinic-service/internal/schedule"
	"clinic-service/pkg/response"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Service struct {
	log    *slog.Logger
	store  Store
	locker lock.Locker
}

func NewService(log *slog.Logger, store Store, locker lock.Locker) *Service {
	return &Service{log: log, store: store, locker: locker}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Services
	CreateService(ctx context.Context, svc *models.Service) (string, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) error
	DeleteService(ctx context.Context, id string) error

	// Staff Blocks
	CreateStaffBlock(ctx context.Context, block *models.StaffBlock) (string, error)
	GetStaffBlock(ctx context.Context, id string) (*models.StaffBlock, error)
	UpdateStaffBlock(ctx context.Context, block *models.StaffBlock) error
	DeleteStaffBlock(ctx context.Context, id string) error
	ListActiveStaffBlocks(ctx context.Context, staffID string, date time.Time) ([]*models.StaffBlock, error)

	// Bookings
	CreateBooking(ctx context.Context, tx *sql.Tx, booking *models.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListLiveBookings(ctx context.Context, staffID string, date time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
	RescheduleBooking(ctx context.Context, tx *sql.Tx, bookingID string, date time.Time, startTime, endTime string) error
	DeleteBooking(ctx context.Context, bookingID string) error
}

// Services

func (s *Service) CreateService(ctx context.Context, req *api.ServiceRequest) (*api.ServiceResponse, error) {
	const op = "service.CreateService"

	availability, err := validateAvailability(req.Availability)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%s: invalid duration: %w", op, response.ErrBadRequest)
	}

	svc := &models.Service{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Availability:    availability,
		IsActive:        req.IsActive,
	}

	id, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetService(ctx, id)
}

func (s *Service) GetService(ctx context.Context, id string) (*api.ServiceResponse, error) {
	const op = "service.GetService"

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.ServiceResponse{
		ID:              svc.ID,
		Name:            svc.Name,
		DurationMinutes: svc.DurationMinutes,
		IsActive:        svc.IsActive,
	}
	if svc.Availability != "" {
		resp.Availability = json.RawMessage(svc.Availability)
	}

	return resp, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, req *api.ServiceRequest) (*api.ServiceResponse, error) {
	const op = "service.UpdateService"

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	availability, err := validateAvailability(req.Availability)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%s: invalid duration: %w", op, response.ErrBadRequest)
	}

	svc.Name = req.Name
	svc.DurationMinutes = req.DurationMinutes
	svc.Availability = availability
	svc.IsActive = req.IsActive

	err = s.store.UpdateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetService(ctx, id)
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	const op = "service.DeleteService"

	err := s.store.DeleteService(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// validateAvailability rejects a malformed weekly schedule at the write
// boundary. A missing schedule is allowed and stored empty: the service
// then has no bookable hours until an administrator configures it.
func validateAvailability(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	ws, err := schedule.ParseWeekly(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %s", response.ErrInvalidSchedule, err)
	}
	if err := ws.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", response.ErrInvalidSchedule, err)
	}

	return string(raw), nil
}

// Staff Blocks

func (s *Service) CreateTimeBlock(ctx context.Context, req *api.TimeBlockRequest) (*api.TimeBlockResponse, error) {
	const op = "service.CreateTimeBlock"

	block, err := staffBlockFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.store.CreateStaffBlock(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetTimeBlock(ctx, id)
}

func (s *Service) GetTimeBlock(ctx context.Context, id string) (*api.TimeBlockResponse, error) {
	const op = "service.GetTimeBlock"

	block, err := s.store.GetStaffBlock(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.TimeBlockResponse{
		ID:        block.ID,
		StaffID:   block.StaffID,
		StartDate: block.StartDate.Format(dateLayout),
		EndDate:   block.EndDate.Format(dateLayout),
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
		Type:      string(block.Type),
		Reason:    block.Reason,
		IsActive:  block.IsActive,
	}, nil
}

func (s *Service) UpdateTimeBlock(ctx context.Context, id string, req *api.TimeBlockRequest) (*api.TimeBlockResponse, error) {
	const op = "service.UpdateTimeBlock"

	if _, err := s.store.GetStaffBlock(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	block, err := staffBlockFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	block.ID = id

	err = s.store.UpdateStaffBlock(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetTimeBlock(ctx, id)
}

func (s *Service) DeleteTimeBlock(ctx context.Context, id string) error {
	const op = "service.DeleteTimeBlock"

	err := s.store.DeleteStaffBlock(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func staffBlockFromRequest(req *api.TimeBlockRequest) (*models.StaffBlock, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}

	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}

	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end_date before start_date: %w", response.ErrBadRequest)
	}

	if _, err := schedule.TimeToMinutes(req.StartTime); err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}

	if _, err := schedule.TimeToMinutes(req.EndTime); err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", err)
	}

	blockType := models.StaffBlockType(req.Type)
	switch blockType {
	case models.StaffBlockVacation, models.StaffBlockSickLeave, models.StaffBlockTraining, models.StaffBlockOther:
	default:
		return nil, fmt.Errorf("invalid type %q: %w", req.Type, response.ErrBadRequest)
	}

	return &models.StaffBlock{
		StaffID:   req.StaffID,
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Type:      blockType,
		Reason:    req.Reason,
		IsActive:  req.IsActive,
	}, nil
}

// Bookings

func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, err)
	}

	startMin, err := schedule.TimeToMinutes(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, err)
	}

	lockKey := fmt.Sprintf("slot:%s:%s:%s", req.StaffID, req.Date, req.StartTime)

	locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	// Authoritative commit-time check: resolve slots again under the lock
	// rather than trusting whatever the UI showed.
	result, err := s.ResolveBookableSlots(ctx, req.ServiceID, req.StaffID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !slotAvailable(result.Slots, req.StartTime) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	booking := &models.Booking{
		ServiceID: req.ServiceID,
		StaffID:   req.StaffID,
		PatientID: req.PatientID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   schedule.MinutesToTime(startMin + result.ServiceDuration),
		Status:    models.BookingPending,
	}

	bookingID, err := s.store.CreateBooking(ctx, tx, booking)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.BookingResponse{
		ID:        booking.ID,
		ServiceID: booking.ServiceID,
		StaffID:   booking.StaffID,
		PatientID: booking.PatientID,
		Date:      booking.Date.Format(dateLayout),
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		Status:    string(booking.Status),
	}, nil
}

func (s *Service) CancelBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	if _, err := s.store.GetBooking(ctx, bookingID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingCancelled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) ConfirmBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) RescheduleBooking(ctx context.Context, req *api.RescheduleRequest) (*api.BookingResponse, error) {
	const op = "service.RescheduleBooking"

	booking, err := s.store.GetBooking(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !booking.Status.Live() {
		return nil, fmt.Errorf("%s: booking is cancelled: %w", op, response.ErrConflict)
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, err)
	}

	startMin, err := schedule.TimeToMinutes(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, err)
	}

	lockKey := fmt.Sprintf("slot:%s:%s:%s", booking.StaffID, req.Date, req.StartTime)

	locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	result, err := s.ResolveRescheduleSlots(ctx, req.BookingID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !slotAvailable(result.Slots, req.StartTime) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	endTime := schedule.MinutesToTime(startMin + result.ServiceDuration)

	err = s.store.RescheduleBooking(ctx, tx, req.BookingID, date, req.StartTime, endTime)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, req.BookingID)
}

func (s *Service) DeleteBooking(ctx context.Context, bookingID string) error {
	const op = "service.DeleteBooking"

	err := s.store.DeleteBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func slotAvailable(slots []api.Slot, startTime string) bool {
	for _, slot := range slots {
		if slot.Time == startTime {
			return slot.Available
		}
	}

	return false
}
