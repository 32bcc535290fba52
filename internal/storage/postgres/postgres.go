package postgres

import (
	"clinic-service/internal/models"
	"clinic-service/pkg/response"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### services ####

func (s *Storage) CreateService(ctx context.Context, svc *models.Service) (string, error) {
	const op = "storage.postgres.CreateService"

	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO services (name, duration_minutes, availability, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING service_id`,
		svc.Name,
		svc.DurationMinutes,
		svc.Availability,
		svc.IsActive,
	).Scan(&id)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetService(ctx context.Context, id string) (*models.Service, error) {
	const op = "storage.postgres.GetService"

	var svc models.Service
	var availability sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT name, duration_minutes, availability, is_active
		FROM services WHERE service_id=$1`, id).
		Scan(
			&svc.Name,
			&svc.DurationMinutes,
			&availability,
			&svc.IsActive,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.ID = id
	// NULL availability means the service was never configured; the engine
	// treats it as "no bookable hours" (fail closed).
	svc.Availability = availability.String

	return &svc, nil
}

func (s *Storage) UpdateService(ctx context.Context, svc *models.Service) error {
	const op = "storage.postgres.UpdateService"

	res, err := s.db.ExecContext(ctx,
		`UPDATE services
		SET name=$1, duration_minutes=$2, availability=$3, is_active=$4
		WHERE service_id=$5`,
		svc.Name,
		svc.DurationMinutes,
		svc.Availability,
		svc.IsActive,
		svc.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteService(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteService"

	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE service_id=$1`, id)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### staff blocks ####

func (s *Storage) CreateStaffBlock(ctx context.Context, block *models.StaffBlock) (string, error) {
	const op = "storage.postgres.CreateStaffBlock"

	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO staff_blocks
		(staff_id, start_date, end_date, start_time, end_time, block_type, reason, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING block_id`,
		block.StaffID,
		block.StartDate,
		block.EndDate,
		block.StartTime,
		block.EndTime,
		string(block.Type),
		block.Reason,
		block.IsActive,
	).Scan(&id)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetStaffBlock(ctx context.Context, id string) (*models.StaffBlock, error) {
	const op = "storage.postgres.GetStaffBlock"

	var block models.StaffBlock

	err := s.db.QueryRowContext(ctx,
		`SELECT staff_id, start_date, end_date, start_time, end_time, block_type, reason, is_active
		FROM staff_blocks WHERE block_id=$1`, id).
		Scan(
			&block.StaffID,
			&block.StartDate,
			&block.EndDate,
			&block.StartTime,
			&block.EndTime,
			&block.Type,
			&block.Reason,
			&block.IsActive,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	block.ID = id

	return &block, nil
}

func (s *Storage) UpdateStaffBlock(ctx context.Context, block *models.StaffBlock) error {
	const op = "storage.postgres.UpdateStaffBlock"

	res, err := s.db.ExecContext(ctx,
		`UPDATE staff_blocks
		SET staff_id=$1, start_date=$2, end_date=$3, start_time=$4, end_time=$5,
			block_type=$6, reason=$7, is_active=$8
		WHERE block_id=$9`,
		block.StaffID,
		block.StartDate,
		block.EndDate,
		block.StartTime,
		block.EndTime,
		string(block.Type),
		block.Reason,
		block.IsActive,
		block.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteStaffBlock(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteStaffBlock"

	res, err := s.db.ExecContext(ctx, `DELETE FROM staff_blocks WHERE block_id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// ListActiveStaffBlocks returns the active blocks whose date range covers
// the given calendar date. Time-of-day overlap is resolved by the caller.
func (s *Storage) ListActiveStaffBlocks(ctx context.Context, staffID string, date time.Time) ([]*models.StaffBlock, error) {
	const op = "storage.postgres.ListActiveStaffBlocks"

	rows, err := s.db.QueryContext(ctx,
		`SELECT block_id, start_date, end_date, start_time, end_time, block_type, reason
		FROM staff_blocks
		WHERE staff_id=$1
		AND is_active=TRUE
		AND start_date <= $2
		AND end_date >= $2`,
		staffID,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var blocks []*models.StaffBlock
	for rows.Next() {
		block := &models.StaffBlock{StaffID: staffID, IsActive: true}
		err := rows.Scan(
			&block.ID,
			&block.StartDate,
			&block.EndDate,
			&block.StartTime,
			&block.EndTime,
			&block.Type,
			&block.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return blocks, nil
}

// #### bookings ####

func (s *Storage) CreateBooking(ctx context.Context, tx *sql.Tx, booking *models.Booking) (string, error) {
	const op = "storage.postgres.CreateBooking"

	var id string
	err := tx.QueryRowContext(ctx,
		`INSERT INTO bookings
		(service_id, staff_id, patient_id, booking_date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING booking_id`,
		booking.ServiceID,
		booking.StaffID,
		booking.PatientID,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		string(booking.Status),
	).Scan(&id)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var booking models.Booking

	err := s.db.QueryRowContext(ctx,
		`SELECT service_id, staff_id, patient_id, booking_date, start_time, end_time, status
		FROM bookings WHERE booking_id=$1`, id).
		Scan(
			&booking.ServiceID,
			&booking.StaffID,
			&booking.PatientID,
			&booking.Date,
			&booking.StartTime,
			&booking.EndTime,
			&booking.Status,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.ID = id

	return &booking, nil
}

// ListLiveBookings returns the non-cancelled bookings for a staff member on
// one calendar date.
func (s *Storage) ListLiveBookings(ctx context.Context, staffID string, date time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListLiveBookings"

	rows, err := s.db.QueryContext(ctx,
		`SELECT booking_id, service_id, patient_id, start_time, end_time, status
		FROM bookings
		WHERE staff_id=$1
		AND booking_date=$2
		AND status != $3`,
		staffID,
		date,
		string(models.BookingCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking := &models.Booking{StaffID: staffID, Date: date}
		err := rows.Scan(
			&booking.ID,
			&booking.ServiceID,
			&booking.PatientID,
			&booking.StartTime,
			&booking.EndTime,
			&booking.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func (s *Storage) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE booking_id=$2`,
		string(status),
		bookingID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) RescheduleBooking(ctx context.Context, tx *sql.Tx, bookingID string, date time.Time, startTime, endTime string) error {
	const op = "storage.postgres.RescheduleBooking"

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings
		SET booking_date=$1, start_time=$2, end_time=$3
		WHERE booking_id=$4`,
		date,
		startTime,
		endTime,
		bookingID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteBooking(ctx context.Context, bookingID string) error {
	const op = "storage.postgres.DeleteBooking"

	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id=$1`, bookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
