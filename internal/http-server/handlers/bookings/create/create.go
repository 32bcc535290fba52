package create

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

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		if req.ServiceID == "" {
			log.Error("service_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "service_id is required"))
			return
		}

		if req.StaffID == "" {
			log.Error("staff_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id is required"))
			return
		}

		if req.PatientID == "" {
			log.Error("patient_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "patient_id is required"))
			return
		}

		if req.Date == "" || req.StartTime == "" {
			log.Error("date or start_time is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date and start_time are required"))
			return
		}

		booking, err := creator.CreateBooking(r.Context(), &req.BookingRequest)

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

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created", slog.Any("booking", booking))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, booking)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *api.BookingResponse) {
	render.JSON(w, r, Response{
		Booking: *booking,
	})
}
