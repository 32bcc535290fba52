package service

import (
	"clinic-service/api"
	"clinic-service/internal/models"
	"clinic-service/internal/schedule"
	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ResolveBookableSlots computes the final bookable slot set for a
// (service, staff, date) tuple in two phases: slots generated from the
// service's weekly schedule, then intersected with the staff member's
// blocks and live bookings.
//
// Results are computed fresh on every call; schedules, blocks and bookings
// can change between requests, so nothing is cached.
func (s *Service) ResolveBookableSlots(ctx context.Context, serviceID, staffID string, date time.Time) (*api.AvailabilityResponse, error) {
	return s.resolveSlots(ctx, serviceID, staffID, date, nil)
}

// ResolveRescheduleSlots is ResolveBookableSlots for the booking-edit flow:
// on the booking's original date its own reservation is ignored, so the
// slot it currently holds stays selectable. Moving to another date drops
// the exemption.
func (s *Service) ResolveRescheduleSlots(ctx context.Context, bookingID string, date time.Time) (*api.AvailabilityResponse, error) {
	const op = "service.ResolveRescheduleSlots"

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.resolveSlots(ctx, booking.ServiceID, booking.StaffID, date, booking)
}

func (s *Service) resolveSlots(ctx context.Context, serviceID, staffID string, date time.Time, exempt *models.Booking) (*api.AvailabilityResponse, error) {
	const op = "service.resolveSlots"

	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &api.AvailabilityResponse{
		Date:            date.Format(dateLayout),
		ServiceID:       serviceID,
		StaffID:         staffID,
		ServiceDuration: svc.DurationMinutes,
		Slots:           []api.Slot{},
	}

	ws, err := schedule.ParseWeekly(svc.Availability)
	if err != nil {
		// Missing or corrupt schedule must never open bookings.
		s.log.Warn("service schedule missing or unparseable, failing closed",
			slog.String("op", op),
			slog.String("service_id", serviceID),
			sl.Err(err),
		)
		return result, nil
	}

	candidates := schedule.GenerateSlots(ws[schedule.DayOfDate(date)], svc.DurationMinutes)
	if len(candidates) == 0 {
		// Service closed this day; no point querying staff data.
		return result, nil
	}

	// Staff phase: the two reads are independent, issue them in parallel.
	var (
		blocks      []*models.StaffBlock
		bookings    []*models.Booking
		blocksErr   error
		bookingsErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		blocks, blocksErr = s.store.ListActiveStaffBlocks(ctx, staffID, date)
	}()
	go func() {
		defer wg.Done()
		bookings, bookingsErr = s.store.ListLiveBookings(ctx, staffID, date)
	}()
	wg.Wait()

	// Deliberate asymmetry with the schedule-parse case above: a staff-data
	// outage degrades to service-only availability instead of blocking all
	// bookings. Offering possibly-stale slots is judged less harmful here.
	degraded := blocksErr != nil || bookingsErr != nil
	if degraded {
		staffErr := blocksErr
		if staffErr == nil {
			staffErr = bookingsErr
		}
		s.log.Warn("staff availability query failed, degrading to service-only availability",
			slog.String("op", op),
			slog.String("staff_id", staffID),
			slog.String("date", result.Date),
			sl.Err(staffErr),
		)
	}

	if exempt != nil && sameDate(date, exempt.Date) {
		bookings = withoutBooking(bookings, exempt.ID)
	}

	for _, candidate := range candidates {
		startMin, err := schedule.TimeToMinutes(candidate)
		if err != nil {
			continue
		}
		endMin := startMin + svc.DurationMinutes

		// Re-verify containment against the schedule even though the
		// generator derived the candidate from it: guards against drift
		// between the two phases.
		available := ws.Contains(date, candidate, schedule.MinutesToTime(endMin))

		if available && !degraded {
			available = !blocked(blocks, startMin, endMin) && !booked(bookings, startMin, endMin)
		}

		result.Slots = append(result.Slots, api.Slot{
			Time:      candidate,
			Available: available,
		})
	}

	return result, nil
}

// blocked reports whether any staff block's time range overlaps the
// candidate [startMin, endMin). A block whose times do not parse is treated
// as covering the whole day: an absence record should err on the side of
// excluding slots.
func blocked(blocks []*models.StaffBlock, startMin, endMin int) bool {
	for _, block := range blocks {
		bStart, err := schedule.TimeToMinutes(block.StartTime)
		if err != nil {
			return true
		}
		bEnd, err := schedule.TimeToMinutes(block.EndTime)
		if err != nil {
			return true
		}

		if bStart < endMin && startMin < bEnd {
			return true
		}
	}

	return false
}

func booked(bookings []*models.Booking, startMin, endMin int) bool {
	for _, booking := range bookings {
		bStart, err := schedule.TimeToMinutes(booking.StartTime)
		if err != nil {
			continue
		}
		bEnd, err := schedule.TimeToMinutes(booking.EndTime)
		if err != nil {
			continue
		}

		if bStart < endMin && startMin < bEnd {
			return true
		}
	}

	return false
}

func withoutBooking(bookings []*models.Booking, id string) []*models.Booking {
	rest := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			rest = append(rest, b)
		}
	}

	return rest
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
