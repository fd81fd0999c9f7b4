// Package prices provides a client for the Alpha Vantage market data API.
// This package centralizes all Alpha Vantage interactions for the application.
package prices

import (
	"fmt"
	"time"
)

// APIError represents an error from the Alpha Vantage API.
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Alpha Vantage rate limit exceeded, retry after %v", e.RetryAfter)
}

// NewsArticle is one article from the news sentiment feed.
type NewsArticle struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Source  string    `json:"source"`
	Summary string    `json:"summary"`
	Date    time.Time `json:"-"`
	DateStr string    `json:"time_published"`
}

// dailyPayload is the raw TIME_SERIES_DAILY_ADJUSTED response. The series
// keys are ISO dates; each bar carries adjusted close as a string field.
type dailyPayload struct {
	Series map[string]dailyBar `json:"Time Series (Daily)"`
	Note   string              `json:"Note"`
	Info   string              `json:"Information"`
	Error  string              `json:"Error Message"`
}

type dailyBar struct {
	AdjustedClose string `json:"5. adjusted close"`
}

// newsPayload is the raw NEWS_SENTIMENT response.
type newsPayload struct {
	Feed  []NewsArticle `json:"feed"`
	Note  string        `json:"Note"`
	Info  string        `json:"Information"`
	Error string        `json:"Error Message"`
}

// payloadError returns the first diagnostic text Alpha Vantage embeds in an
// otherwise-200 response, or empty when none is present.
func payloadError(note, info, errMsg string) string {
	for _, msg := range []string{errMsg, note, info} {
		if msg != "" {
			return msg
		}
	}
	return ""
}
