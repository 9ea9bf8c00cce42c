package async

import (
	"errors"

	"inkpress/internal/transport"
)

// FallbackMessage is shown when an error carries nothing more specific.
const FallbackMessage = "An error occurred"

// Message picks the user-facing text for err: the server's structured
// detail, then the transport message, then the error text, then
// FallbackMessage. Transport errors without a detail or message use the
// fallback rather than their generated description.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var te *transport.Error
	if errors.As(err, &te) {
		if d := te.Detail(); d != "" {
			return d
		}
		if te.Message != "" {
			return te.Message
		}
		return FallbackMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
