package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/service"
	wdomain "github.com/cuongbtq/botmr-be/internal/worker/domain"
	"github.com/gin-gonic/gin"
)

// JobReader exposes job state. *worker.JobQueue satisfies it.
type JobReader interface {
	GetJobStatus(jobID string) (wdomain.Job, bool)
	Stats() wdomain.QueueStats
}

// Pinger reports backend availability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus is satisfied by *rabbitmq.Client.
type BrokerStatus interface {
	IsConnected() bool
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Recordings *service.RecordingService
	Meetings   *service.MeetingService
	Tasks      *service.TaskService
	Messages   *service.MessageService
	Settings   *service.SettingsService
	Jobs       JobReader
	Store      Pinger
	// Broker is nil when RabbitMQ is disabled.
	Broker BrokerStatus
	// Events serves the WebSocket event stream. Nil disables the route.
	Events        http.Handler
	AppName       string
	Version       string
	MaxUploadSize int64
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindExternalService:
		return http.StatusBadGateway
	case domain.KindProcessing:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Server-side failures are
// logged with their cause and returned with a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	body := dto.ErrorResponse{Error: string(kind), Message: err.Error()}
	var appErr *domain.Error
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Details = appErr.Details
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
		if kind == domain.KindInternal {
			body.Message = "Internal server error"
		}
	} else {
		logger.Warn("Request rejected",
			slog.String("path", c.Request.URL.Path),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}

	_ = c.Error(err)
	c.JSON(status, body)
}

// respondBindError rejects a request whose body or query did not bind.
func respondBindError(c *gin.Context, logger *slog.Logger, what string, err error) {
	logger.Warn("Invalid "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   string(domain.KindValidation),
		Message: "Invalid " + what,
		Details: map[string]any{"reason": err.Error()},
	})
}
