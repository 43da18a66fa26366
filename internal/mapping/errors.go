package mapping

import (
	"fmt"
	"strings"
)

// Error reports a mapping failure with the same segment/line locator shape
// the parser uses, so dead-letter reports read uniformly.
type Error struct {
	Message   string
	SegmentID string
	Line      int
}

func (e *Error) Error() string {
	return fmt.Sprintf("mapping error at %s (line %d): %s", e.SegmentID, e.Line, e.Message)
}

func mappingErrorf(segmentID string, line int, format string, args ...interface{}) *Error {
	return &Error{
		Message:   fmt.Sprintf(format, args...),
		SegmentID: segmentID,
		Line:      line,
	}
}

// ProfileNotFoundError means no mapping profile is registered for a
// retailer/transaction pair. It is fatal and non-retryable: the fix is an
// operator adding a profile, not a resubmission.
type ProfileNotFoundError struct {
	RetailerID         string
	TransactionSetCode string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf(
		"no mapping profile found for retailer %q and transaction %q; "+
			"drop a JSON file named %s-%s.json into the mappings directory and restart",
		e.RetailerID, e.TransactionSetCode,
		strings.ToLower(e.RetailerID), e.TransactionSetCode)
}
