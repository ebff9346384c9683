package models

import (
	"errors"
	"time"
)

var (
	// ErrEmptyEmbedding is returned when a provider yields no vector for a text.
	ErrEmptyEmbedding = errors.New("empty embedding")
	// ErrDimensionMismatch is returned when a vector does not match the corpus dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrMissingURL is returned when a news item without a source URL is stored.
	ErrMissingURL = errors.New("news item url required")
	// ErrDocumentNotFound and ErrDocumentEmpty guard delivery of a rendered document.
	ErrDocumentNotFound = errors.New("PDF file not found")
	ErrDocumentEmpty    = errors.New("PDF file is empty")
)

// Role tags the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single chat message. Messages are never edited once appended.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NewsItem is a stored article. URL is the deduplication key.
type NewsItem struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	Embedding   []float32 `json:"-"`
	PublishedAt time.Time `json:"published_at"`
}

// Candidate is a vector search hit ordered by ascending distance.
type Candidate struct {
	Item     NewsItem
	Distance float64
}

// RankedResult pairs an item with its similarity and blended score.
type RankedResult struct {
	Item           NewsItem
	Similarity     float64
	KeywordMatches int
	Score          float64
}
