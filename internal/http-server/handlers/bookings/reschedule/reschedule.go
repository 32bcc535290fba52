package reschedule

import (
	"clinic-service/api"
	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BookingRescheduler interface {
	RescheduleBooking(ctx context.Context, req *api.RescheduleRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.RescheduleRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, rescheduler BookingRescheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.reschedule.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.BookingID == "" {
			log.Error("booking_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "booking_id is required"))
			return
		}

		if req.Date == "" || req.StartTime == "" {
			log.Error("date or start_time is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date and start_time are required"))
			return
		}

		booking, err := rescheduler.RescheduleBooking(r.Context(), &req.RescheduleRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Error("slot is not available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("booking is cancelled")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "booking is cancelled"))
			return
		}

		if err != nil {
			log.Error("Failed to reschedule booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reschedule booking"))
			return
		}

		log.Info("Booking rescheduled", slog.Any("booking", booking))
		responseOK(w, r, booking)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *api.BookingResponse) {
	render.JSON(w, r, Response{
		Booking: *booking,
	})
}
