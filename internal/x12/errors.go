package x12

import "fmt"

// ParseError reports a structural X12 violation with enough context
// (segment id + 1-based line number) for the sender to correct the file.
type ParseError struct {
	Message   string
	SegmentID string
	Line      int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("x12 parse error at %s (line %d): %s", e.SegmentID, e.Line, e.Message)
}

func parseErrorf(segmentID string, line int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Message:   fmt.Sprintf(format, args...),
		SegmentID: segmentID,
		Line:      line,
	}
}
