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

type ServiceCreator interface {
	CreateService(ctx context.Context, req *api.ServiceRequest) (*api.ServiceResponse, error)
}

type Request struct {
	api.ServiceRequest
}

type Response struct {
	response.Response
	Service api.ServiceResponse `json:"service,omitempty"`
}

func New(log *slog.Logger, creator ServiceCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.create.New"

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

		if req.Name == "" {
			log.Error("name is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "name is required"))
			return
		}

		service, err := creator.CreateService(r.Context(), &req.ServiceRequest)

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
			log.Error("Failed to create service", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create service"))
			return
		}

		log.Info("Service created", slog.Any("service", service))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, service)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, service *api.ServiceResponse) {
	render.JSON(w, r, Response{
		Service: *service,
	})
}
