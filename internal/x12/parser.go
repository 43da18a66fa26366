// Package x12 parses raw X12 EDI text into a structured interchange tree,
// honoring ISA/GS/ST envelope nesting. The parser is stateless and safe to
// share across any number of goroutines.
//
// Parsing strategy:
//  1. Read the fixed-width ISA header (106 chars) to detect the element
//     delimiter, component delimiter, and segment terminator.
//  2. Split the content on the segment terminator, dropping blank fragments.
//  3. Walk segments sequentially with a small state machine keyed on the
//     envelope segment ids.
package x12

import "strings"

const (
	// isaLength is the fixed width of a valid ISA header segment.
	isaLength = 106

	segISA = "ISA"
	segIEA = "IEA"
	segGS  = "GS"
	segGE  = "GE"
	segST  = "ST"
	segSE  = "SE"
)

// Parse converts raw EDI text into an Interchange. It returns a *ParseError
// for every structural violation: empty input, a short ISA header, or any
// break in the strict ISA > GS > ST nesting.
func Parse(raw string) (*Interchange, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, parseErrorf(segISA, 0, "EDI content is empty or null")
	}

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	if len(normalized) < isaLength {
		return nil, parseErrorf(segISA, 1,
			"content too short to contain a valid ISA segment (min %d chars)", isaLength)
	}

	elementDelim := normalized[3]
	componentDelim := normalized[104]
	terminator := normalized[105]

	segments := tokenize(normalized, terminator, elementDelim)
	return buildInterchange(segments, elementDelim, componentDelim, terminator)
}

// tokenize splits the content on the segment terminator and each surviving
// fragment on the element delimiter. Line numbers count non-blank segments,
// starting at 1.
func tokenize(content string, terminator, elementDelim byte) []*Segment {
	var segments []*Segment
	line := 0
	for _, frag := range strings.Split(content, string(terminator)) {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		line++
		parts := strings.Split(frag, string(elementDelim))
		segments = append(segments, &Segment{
			ID:       strings.TrimSpace(parts[0]),
			Elements: parts[1:],
			Line:     line,
		})
	}
	return segments
}

func buildInterchange(segments []*Segment, elementDelim, componentDelim, terminator byte) (*Interchange, error) {
	var (
		interchange *Interchange
		group       *Group
		txn         *Transaction
	)

	if len(segments) > 0 && segments[0].ID != segISA {
		return nil, parseErrorf(segments[0].ID, segments[0].Line,
			"interchange must begin with an ISA segment")
	}

	for _, seg := range segments {
		switch seg.ID {
		case segISA:
			if err := requireElements(seg, 16); err != nil {
				return nil, err
			}
			interchange = &Interchange{
				SenderID:           strings.TrimSpace(seg.Element(6)),
				ReceiverID:         strings.TrimSpace(seg.Element(8)),
				Date:               seg.Element(9),
				Time:               seg.Element(10),
				ControlNumber:      seg.Element(13),
				ElementDelimiter:   elementDelim,
				ComponentDelimiter: componentDelim,
				SegmentTerminator:  terminator,
			}

		case segGS:
			if interchange == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered segment outside of ISA envelope")
			}
			if err := requireElements(seg, 8); err != nil {
				return nil, err
			}
			group = &Group{
				FunctionalID:  seg.Element(1),
				SenderCode:    seg.Element(2),
				ReceiverCode:  seg.Element(3),
				ControlNumber: seg.Element(6),
			}

		case segST:
			if group == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered segment outside of GS envelope")
			}
			if err := requireElements(seg, 2); err != nil {
				return nil, err
			}
			txn = &Transaction{
				SetCode:       seg.Element(1),
				ControlNumber: seg.Element(2),
			}

		case segSE:
			if txn == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered SE without a matching ST segment")
			}
			if group == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered segment outside of GS envelope")
			}
			group.Transactions = append(group.Transactions, txn)
			txn = nil

		case segGE:
			if group == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered GE without a matching GS segment")
			}
			if interchange == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered segment outside of ISA envelope")
			}
			interchange.Groups = append(interchange.Groups, group)
			group = nil

		case segIEA:
			if interchange == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "encountered segment outside of ISA envelope")
			}

		default:
			if txn == nil {
				return nil, parseErrorf(seg.ID, seg.Line, "content segment outside ST/SE transaction")
			}
			txn.Segments = append(txn.Segments, seg)
		}
	}

	if interchange == nil {
		return nil, parseErrorf(segISA, 0, "no ISA segment found in EDI content")
	}
	return interchange, nil
}

func requireElements(seg *Segment, min int) error {
	if len(seg.Elements) < min {
		return parseErrorf(seg.ID, seg.Line,
			"expected at least %d elements but found %d", min, len(seg.Elements))
	}
	return nil
}
