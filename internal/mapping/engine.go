package mapping

import (
	"strconv"
	"strings"
	"time"

	"github.com/ignite/edi-gateway/internal/canonical"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
	"github.com/ignite/edi-gateway/internal/x12"
)

// ediDateLayout is the 8-digit yyyyMMdd date format X12 uses.
const ediDateLayout = "20060102"

// Canonical header fields a profile rule may target. An unrecognized target
// is a warning, not an error: the rule is inert so profiles can carry fields
// a newer gateway version understands.
const (
	fieldPONumber              = "poNumber"
	fieldPurchaseOrderType     = "purchaseOrderType"
	fieldPODate                = "poDate"
	fieldRequestedDeliveryDate = "requestedDeliveryDate"
	fieldShipToName            = "shipToName"
	fieldShipToAddress         = "shipToAddress"
	fieldShipToCity            = "shipToCity"
	fieldShipToState           = "shipToState"
	fieldShipToZip             = "shipToZip"
	fieldDepartmentNumber      = "departmentNumber"
)

// Canonical line fields.
const (
	fieldQuantityOrdered    = "quantityOrdered"
	fieldUnitOfMeasure      = "unitOfMeasure"
	fieldUnitPrice          = "unitPrice"
	fieldSKU                = "sku"
	fieldProductDescription = "productDescription"
)

// Map applies a profile's rules to a parsed transaction and produces a
// canonical order. The function is pure: it reads only its arguments and is
// safe for unbounded concurrent invocation. Trace identifiers (correlation
// id, control numbers) are stamped later by the orchestrator.
func Map(txn *x12.Transaction, profile *Profile, retailerID string) (*canonical.Order, error) {
	order := &canonical.Order{
		RetailerID: strings.ToUpper(retailerID),
	}

	if err := applyHeaderMappings(txn, profile, order); err != nil {
		return nil, err
	}

	lines, err := applyLineMappings(txn, profile)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

func applyHeaderMappings(txn *x12.Transaction, profile *Profile, order *canonical.Order) error {
	for _, rule := range profile.HeaderMappings {
		seg := resolveSegment(txn, rule)
		if seg == nil {
			if rule.Required {
				return mappingErrorf(rule.SegmentID, 0,
					"required segment %q not found in transaction", rule.SegmentID)
			}
			continue
		}

		value := seg.Element(rule.ElementPosition)
		if strings.TrimSpace(value) == "" && rule.DefaultValue != "" {
			value = rule.DefaultValue
		}
		if strings.TrimSpace(value) == "" {
			if rule.Required {
				return mappingErrorf(rule.SegmentID, seg.Line,
					"required element %s is empty", seg.Ref(rule.ElementPosition))
			}
			continue
		}

		if err := applyHeaderField(order, rule.TargetField, value, seg); err != nil {
			return err
		}
	}
	return nil
}

func applyHeaderField(order *canonical.Order, targetField, value string, seg *x12.Segment) error {
	switch targetField {
	case fieldPONumber:
		order.PONumber = value
	case fieldPurchaseOrderType:
		order.PurchaseOrderType = value
	case fieldPODate:
		d, err := parseDate(value, seg)
		if err != nil {
			return err
		}
		order.PODate = d
	case fieldRequestedDeliveryDate:
		d, err := parseDate(value, seg)
		if err != nil {
			return err
		}
		order.RequestedDeliveryDate = d
	case fieldShipToName:
		order.ShipToName = value
	case fieldShipToAddress:
		order.ShipToAddress = value
	case fieldShipToCity:
		order.ShipToCity = value
	case fieldShipToState:
		order.ShipToState = value
	case fieldShipToZip:
		order.ShipToZip = value
	case fieldDepartmentNumber:
		order.DepartmentNumber = value
	default:
		logger.Warn("unknown header target field in mapping profile, rule is inert",
			"targetField", targetField, "segment", seg.ID)
	}
	return nil
}

func applyLineMappings(txn *x12.Transaction, profile *Profile) ([]canonical.OrderLine, error) {
	loop := profile.LineLoop()
	occurrences := txn.FindAll(loop)

	lines := make([]canonical.OrderLine, 0, len(occurrences))
	for i, seg := range occurrences {
		line := canonical.OrderLine{SequenceNumber: i + 1}

		for _, rule := range profile.LineMappings {
			value := seg.Element(rule.ElementPosition)
			if strings.TrimSpace(value) == "" && rule.DefaultValue != "" {
				value = rule.DefaultValue
			}
			if strings.TrimSpace(value) == "" {
				if rule.Required {
					return nil, mappingErrorf(loop, seg.Line,
						"required line-level element %s is empty on line sequence %d",
						seg.Ref(rule.ElementPosition), i+1)
				}
				continue
			}
			if err := applyLineField(&line, rule.TargetField, value, seg); err != nil {
				return nil, err
			}
		}

		lines = append(lines, line)
	}

	return lines, nil
}

func applyLineField(line *canonical.OrderLine, targetField, value string, seg *x12.Segment) error {
	switch targetField {
	case fieldQuantityOrdered:
		n, err := parseInt(value, seg)
		if err != nil {
			return err
		}
		line.QuantityOrdered = n
	case fieldUnitOfMeasure:
		line.UnitOfMeasure = value
	case fieldUnitPrice:
		p, err := parseDecimal(value, seg)
		if err != nil {
			return err
		}
		line.UnitPrice = p
	case fieldSKU:
		line.SKU = value
	case fieldProductDescription:
		line.ProductDescription = value
	default:
		logger.Warn("unknown line-level target field in mapping profile, rule is inert",
			"targetField", targetField, "segment", seg.ID)
	}
	return nil
}

// resolveSegment picks the source segment for a header rule. Without a
// qualifier the first segment with the rule's id wins. A qualifier
// "pos:value" scans every occurrence for a case-insensitive element match;
// a malformed qualifier falls back to first-match.
func resolveSegment(txn *x12.Transaction, rule Rule) *x12.Segment {
	if strings.TrimSpace(rule.Qualifier) == "" {
		return txn.FindFirst(rule.SegmentID)
	}

	parts := strings.SplitN(rule.Qualifier, ":", 2)
	if len(parts) != 2 {
		return txn.FindFirst(rule.SegmentID)
	}
	pos, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return txn.FindFirst(rule.SegmentID)
	}
	want := parts[1]

	for _, seg := range txn.FindAll(rule.SegmentID) {
		if strings.EqualFold(seg.Element(pos), want) {
			return seg
		}
	}
	return nil
}

func parseDate(value string, seg *x12.Segment) (time.Time, error) {
	d, err := time.Parse(ediDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, mappingErrorf(seg.ID, seg.Line,
			"invalid date format %q, expected yyyyMMdd", value)
	}
	return d, nil
}

func parseInt(value string, seg *x12.Segment) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, mappingErrorf(seg.ID, seg.Line, "expected integer but got %q", value)
	}
	return n, nil
}

func parseDecimal(value string, seg *x12.Segment) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, mappingErrorf(seg.ID, seg.Line, "expected decimal number but got %q", value)
	}
	return f, nil
}
