package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// ErrorResponse is the envelope for synchronous request failures.
// Validation errors carry the offending field.
// @Description Error response payload
type ErrorResponse struct {
	Error string `json:"error" example:"destination must be an email address"` // Human-readable reason
	Field string `json:"field,omitempty" example:"destination"`                // Offending field, if any
}

// RouteOutcome reports how the engine disposed of an email.
// @Description Routing outcome for an ingested email
type RouteOutcome struct {
	EmailID         int64           `json:"email_id" example:"42"`                     // Stored email ID
	Status          RoutingStatus   `json:"status" example:"auto-routed"`              // Final routing status
	ReviewReason    *ReviewReason   `json:"review_reason,omitempty"`                   // Why the email was escalated, if it was
	ClientID        *int64          `json:"client_id,omitempty" example:"7"`           // Resolved client, if any
	Classification  *Classification `json:"classification,omitempty"`                  // Assigned label, if classified
	Confidence      float64         `json:"confidence" example:"0.91"`                 // Classifier confidence
	ActionReference *string         `json:"action_reference,omitempty"`                // Issue URL or forward destination
	Message         string          `json:"message,omitempty" example:"issue created"` // Human-readable summary
}
