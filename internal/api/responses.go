package api

import "github.com/roma-frontend/fitAccess-sub002/internal/schedule"

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ValidationErrorResponse lists every violated rule of a request.
type ValidationErrorResponse struct {
	Error   string               `json:"error" example:"validation failed"`
	Details []schedule.Violation `json:"details"`
}
