package alphavantage

import "fmt"

// ErrRateLimitExceeded is returned when the daily quota is used up or the
// API answers with a throttling note.
type ErrRateLimitExceeded struct {
	ResetAt string
}

func (e ErrRateLimitExceeded) Error() string {
	if e.ResetAt != "" {
		return fmt.Sprintf("alpha vantage rate limit exceeded, resets at %s", e.ResetAt)
	}
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey is returned when the API rejects the key
type ErrInvalidAPIKey struct{}

func (e ErrInvalidAPIKey) Error() string {
	return "alpha vantage API key is invalid or missing"
}

// ErrSymbolNotFound is returned when the API has no data for a symbol
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Symbol)
}

// ErrAPI wraps any other "Error Message" payload
type ErrAPI struct {
	Message string
}

func (e ErrAPI) Error() string {
	return fmt.Sprintf("alpha vantage error: %s", e.Message)
}
