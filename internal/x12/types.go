package x12

import "fmt"

// Segment is a single X12 segment: an identifier followed by ordered data
// elements. Element access is 1-based to match X12 element references
// (BEG03 = Element(3)); positions outside the segment return "".
type Segment struct {
	ID       string
	Elements []string
	// Line is the 1-based position of this segment among the non-blank
	// segments of the source file, used in error locators.
	Line int
}

// Element returns the data element at the given 1-based position,
// or "" when the position is out of range.
func (s *Segment) Element(position int) string {
	idx := position - 1
	if idx < 0 || idx >= len(s.Elements) {
		return ""
	}
	return s.Elements[idx]
}

// Ref renders a qualified element reference such as "BEG03".
func (s *Segment) Ref(position int) string {
	return fmt.Sprintf("%s%02d", s.ID, position)
}

func (s *Segment) String() string {
	out := s.ID
	for _, e := range s.Elements {
		out += "*" + e
	}
	return out
}

// Transaction is one business document instance bounded by ST/SE.
type Transaction struct {
	SetCode       string
	ControlNumber string
	Segments      []*Segment
}

// FindFirst returns the first content segment with the given id, or nil.
func (t *Transaction) FindFirst(segmentID string) *Segment {
	for _, s := range t.Segments {
		if s.ID == segmentID {
			return s
		}
	}
	return nil
}

// FindAll returns every content segment with the given id, in document order.
func (t *Transaction) FindAll(segmentID string) []*Segment {
	var out []*Segment
	for _, s := range t.Segments {
		if s.ID == segmentID {
			out = append(out, s)
		}
	}
	return out
}

// Group is a GS/GE functional group owning ordered transactions.
type Group struct {
	FunctionalID  string
	SenderCode    string
	ReceiverCode  string
	ControlNumber string
	Transactions  []*Transaction
}

// Interchange is the outermost ISA/IEA envelope. The three delimiter
// characters are the ones detected from the fixed-width ISA header.
type Interchange struct {
	SenderID           string
	ReceiverID         string
	Date               string
	Time               string
	ControlNumber      string
	ElementDelimiter   byte
	ComponentDelimiter byte
	SegmentTerminator  byte
	Groups             []*Group
}

// FirstTransaction walks groups in order and returns the first transaction,
// or nil when the interchange carries none.
func (i *Interchange) FirstTransaction() *Transaction {
	for _, g := range i.Groups {
		if len(g.Transactions) > 0 {
			return g.Transactions[0]
		}
	}
	return nil
}
