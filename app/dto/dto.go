package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// HealthResponse is the payload of the health endpoint
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Service     string `json:"service"`
}
