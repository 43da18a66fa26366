// Package mapping implements the declarative, rule-driven translation of
// parsed X12 transactions into the canonical order model. All
// retailer-specific knowledge lives in JSON profiles loaded at startup, not
// in code.
package mapping

// Rule is a single field mapping within a profile.
//
// Example JSON entry:
//
//	{
//	  "segmentId": "BEG",
//	  "elementPosition": 3,
//	  "targetField": "poNumber",
//	  "required": true
//	}
type Rule struct {
	// SegmentID is the X12 segment identifier, e.g. "BEG", "N1", "PO1".
	SegmentID string `json:"segmentId"`

	// ElementPosition is the 1-based element position (3 = BEG03).
	ElementPosition int `json:"elementPosition"`

	// TargetField names the canonical field this rule populates.
	TargetField string `json:"targetField"`

	// Required makes mapping fail when the element is missing or empty
	// after default substitution.
	Required bool `json:"required"`

	// DefaultValue is substituted when the source element is empty.
	DefaultValue string `json:"defaultValue,omitempty"`

	// Qualifier filters repeated segments of the same id, format
	// "elementPosition:expectedValue", e.g. "1:ST" for the ship-to N1.
	Qualifier string `json:"qualifier,omitempty"`

	// LineLevel marks a rule that applies per repeating-loop occurrence
	// and populates an order line rather than the header.
	LineLevel bool `json:"lineLevel"`
}

// Profile is the complete mapping configuration for one retailer +
// transaction set combination. Profiles are immutable after load.
//
// File naming convention: {retailer-id}-{transaction-set}.json,
// e.g. target-850.json, walmart-850.json.
type Profile struct {
	// RetailerID is the canonical retailer identifier, e.g. "TARGET".
	RetailerID string `json:"retailerId"`

	// TransactionSetCode is the X12 transaction set this profile handles,
	// e.g. "850" (Purchase Order).
	TransactionSetCode string `json:"transactionSetCode"`

	Description string `json:"description"`
	Version     string `json:"version"`

	// ElementDelimiter this retailer is expected to use. The X12 default
	// is "*".
	ElementDelimiter string `json:"elementDelimiter,omitempty"`

	// LineLoopSegmentID names the repeating line-item loop segment.
	// Defaults to "PO1" when omitted.
	LineLoopSegmentID string `json:"lineLoopSegmentId,omitempty"`

	HeaderMappings []Rule `json:"headerMappings"`
	LineMappings   []Rule `json:"lineMappings"`
}

// LineLoop returns the repeating-loop segment id, defaulting to PO1.
func (p *Profile) LineLoop() string {
	if p.LineLoopSegmentID == "" {
		return "PO1"
	}
	return p.LineLoopSegmentID
}
