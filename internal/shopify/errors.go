package shopify

import "fmt"

// TransmissionError reports a failed delivery to the Shopify Admin API.
// Retryable distinguishes transient failures (5xx, 429, network) from
// terminal rejections (other 4xx), which must not be re-attempted.
type TransmissionError struct {
	StatusCode int
	Detail     string
	Retryable  bool
}

func (e *TransmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("shopify transmission failed (HTTP %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("shopify transmission failed: %s", e.Detail)
}
