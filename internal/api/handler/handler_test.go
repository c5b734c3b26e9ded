package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind domain.Kind
		want int
	}{
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindConflict, http.StatusConflict},
		{domain.KindAuthentication, http.StatusUnauthorized},
		{domain.KindAuthorization, http.StatusForbidden},
		{domain.KindExternalService, http.StatusBadGateway},
		{domain.KindProcessing, http.StatusUnprocessableEntity},
		{domain.KindStorage, http.StatusInternalServerError},
		{domain.KindQueue, http.StatusInternalServerError},
		{domain.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetail  string
	}{
		{
			name:        "not found",
			err:         domain.NewNotFoundError("meeting %s not found", "m1"),
			wantStatus:  http.StatusNotFound,
			wantCode:    "NotFoundError",
			wantMessage: "meeting m1 not found",
		},
		{
			name:        "conflict with details",
			err:         domain.NewConflictError("session is stopped").WithDetail("status", "stopped"),
			wantStatus:  http.StatusConflict,
			wantCode:    "ConflictError",
			wantMessage: "session is stopped",
			wantDetail:  "status",
		},
		{
			name:        "external service",
			err:         domain.NewExternalServiceError("mistral", errors.New("HTTP 503")),
			wantStatus:  http.StatusBadGateway,
			wantCode:    "ExternalServiceError",
			wantMessage: "mistral request failed",
			wantDetail:  "service",
		},
		{
			name:        "unclassified error hides its cause",
			err:         errors.New("connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "InternalServerError",
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			respondError(c, logger.NewNop(), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
			if tt.wantDetail != "" {
				assert.Contains(t, body.Details, tt.wantDetail)
			}
		})
	}
}

type fakeBroker bool

func (b fakeBroker) IsConnected() bool { return bool(b) }

func TestHealth_Broker(t *testing.T) {
	tests := []struct {
		name       string
		broker     BrokerStatus
		wantStatus string
		wantState  any
	}{
		{"disabled", nil, "healthy", nil},
		{"connected", fakeBroker(true), "healthy", "connected"},
		{"disconnected", fakeBroker(false), "degraded", "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler(&Dependencies{Logger: logger.NewNop(), Broker: tt.broker, Version: "test"})

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
			h.Health(c)

			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Status   string         `json:"status"`
				Services map[string]any `json:"services"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantState, body.Services["rabbitmq"])
		})
	}
}
