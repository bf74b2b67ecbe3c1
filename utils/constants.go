package utils

import (
	"time"
)

// Token time constants
const (
	// AdminTokenTTL is the time-to-live for admin access tokens (12 hours)
	AdminTokenTTL = 12 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Request handling constants
const (
	// RequestTimeout bounds every handler's business flow call
	RequestTimeout = 30 * time.Second
)

// Request-scoped context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
	AdminIDKey   contextKey = "admin_id"
)
