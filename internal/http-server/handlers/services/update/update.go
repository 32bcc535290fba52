package update

import (
	"clinic-service/api"
	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ServiceUpdater interface {
	UpdateService(ctx context.Context, id string, req *api.ServiceRequest) (*api.ServiceResponse, error)
}

type Request struct {
	api.ServiceRequest
}

type Response struct {
	response.Response
	Service api.ServiceResponse `json:"service,omitempty"`
}

func New(log *slog.Logger, updater ServiceUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		service, err := updater.UpdateService(r.Context(), id, &req.ServiceRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidSchedule) {
			log.Error("invalid weekly schedule", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_SCHEDULE), "invalid weekly schedule"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid service"))
			return
		}

		if err != nil {
			log.Error("Failed to update service", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update service"))
			return
		}

		log.Info("Service updated", slog.Any("service", service))
		responseOK(w, r, service)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, service *api.ServiceResponse) {
	render.JSON(w, r, Response{
		Service: *service,
	})
}
