package get

import (
	"clinic-service/api"
	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SlotResolver interface {
	ResolveBookableSlots(ctx context.Context, serviceID, staffID string, date time.Time) (*api.AvailabilityResponse, error)
	ResolveRescheduleSlots(ctx context.Context, bookingID string, date time.Time) (*api.AvailabilityResponse, error)
}

func New(log *slog.Logger, resolver SlotResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		dateStr := r.URL.Query().Get("date")
		if dateStr == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			log.Error("Failed to parse date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
			return
		}

		// booking_id switches to the modification flow: the booking's own
		// slot stays selectable on its original date.
		if bookingID := r.URL.Query().Get("booking_id"); bookingID != "" {
			result, err := resolver.ResolveRescheduleSlots(r.Context(), bookingID, date)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to resolve reschedule slots", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve availability"))
				return
			}

			log.Info("Reschedule availability resolved", slog.Int("slots", len(result.Slots)))
			render.JSON(w, r, result)
			return
		}

		serviceID := r.URL.Query().Get("service_id")
		if serviceID == "" {
			log.Error("service_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "service_id is required"))
			return
		}

		staffID := r.URL.Query().Get("staff_id")
		if staffID == "" {
			log.Error("staff_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id is required"))
			return
		}

		result, err := resolver.ResolveBookableSlots(r.Context(), serviceID, staffID, date)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to resolve availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve availability"))
			return
		}

		log.Info("Availability resolved",
			slog.String("service_id", serviceID),
			slog.String("staff_id", staffID),
			slog.Int("slots", len(result.Slots)),
		)
		render.JSON(w, r, result)
	}
}
