package server

import "github.com/sohanAi024/News-Multi-Agent/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// ChatRequest is one user turn.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse carries the rendered assistant reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// SessionResponse exposes a session's history.
type SessionResponse struct {
	SessionID    string           `json:"session_id"`
	Messages     []models.Message `json:"messages"`
	DocumentPath string           `json:"document_path,omitempty"`
}

// MessageResponse wraps a human readable status line.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the news health probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// IndexResponse describes the API on the root route.
type IndexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}
