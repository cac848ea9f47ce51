package tracemoe

import (
	"errors"

	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
)

// Sentinel errors for trace.moe API operations.
var (
	ErrPayloadTooLarge  = errors.New("tracemoe: payload too large")
	ErrRateLimited      = errors.New("tracemoe: rate limited by server")
	ErrNotFound         = errors.New("tracemoe: not found")
	ErrServer           = errors.New("tracemoe: server error")
	ErrUnexpectedStatus = errors.New("tracemoe: unexpected status")
	ErrSearchFailed     = errors.New("tracemoe: search reported an error")
	ErrInvalidResponse  = errors.New("tracemoe: invalid response")
)

// wrapError attaches the operation and a domain error code to err, so
// callers can match both the sentinel and the failure class.
func wrapError(op string, err error) error {
	return domainerrors.Wrap(err, codeFor(err), "tracemoe "+op)
}

func codeFor(err error) domainerrors.Code {
	switch {
	case errors.Is(err, ErrPayloadTooLarge),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrSearchFailed),
		errors.Is(err, ErrServer),
		errors.Is(err, ErrUnexpectedStatus):
		return domainerrors.CodeUpstreamRejected
	case errors.Is(err, ErrNotFound):
		return domainerrors.CodeNotFound
	case errors.Is(err, ErrInvalidResponse):
		return domainerrors.CodeDecode
	default:
		return domainerrors.CodeNetwork
	}
}
