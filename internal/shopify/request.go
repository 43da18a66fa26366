package shopify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/edi-gateway/internal/canonical"
)

// DraftOrderRequest is the Shopify Admin API draft order payload.
//
// Reference: https://shopify.dev/docs/api/admin-rest/2024-01/resources/draftorder
type DraftOrderRequest struct {
	DraftOrder DraftOrder `json:"draft_order"`
}

type DraftOrder struct {
	Note            string           `json:"note"`
	Email           string           `json:"email,omitempty"`
	Tags            string           `json:"tags"`
	LineItems       []LineItem       `json:"line_items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	NoteAttributes  []NoteAttribute  `json:"note_attributes"`
}

type LineItem struct {
	SKU              string `json:"sku"`
	Quantity         int    `json:"quantity"`
	Price            string `json:"price"`
	Title            string `json:"title"`
	RequiresShipping bool   `json:"requires_shipping"`
}

type ShippingAddress struct {
	FirstName    string `json:"first_name"`
	Address1     string `json:"address1"`
	City         string `json:"city"`
	ProvinceCode string `json:"province_code"`
	Zip          string `json:"zip"`
	CountryCode  string `json:"country_code"`
}

// NoteAttribute carries the idempotency hints downstream systems use to
// recognize a purchase order they have already seen.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewDraftOrderRequest translates a canonical order into a draft order
// payload. Line titles fall back to the SKU when the retailer sent no
// product description.
func NewDraftOrderRequest(order *canonical.Order) DraftOrderRequest {
	items := make([]LineItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		title := line.ProductDescription
		if title == "" {
			title = line.SKU
		}
		items = append(items, LineItem{
			SKU:              line.SKU,
			Quantity:         line.QuantityOrdered,
			Price:            strconv.FormatFloat(line.UnitPrice, 'f', 2, 64),
			Title:            title,
			RequiresShipping: true,
		})
	}

	var address *ShippingAddress
	if order.ShipToName != "" || order.ShipToAddress != "" {
		address = &ShippingAddress{
			FirstName:    order.ShipToName,
			Address1:     order.ShipToAddress,
			City:         order.ShipToCity,
			ProvinceCode: order.ShipToState,
			Zip:          order.ShipToZip,
			CountryCode:  "US",
		}
	}

	return DraftOrderRequest{DraftOrder: DraftOrder{
		Note:            fmt.Sprintf("EDI PO# %s from %s", order.PONumber, order.RetailerID),
		Tags:            "edi,gateway," + strings.ToLower(order.RetailerID),
		LineItems:       items,
		ShippingAddress: address,
		NoteAttributes: []NoteAttribute{
			{Name: "edi_po_number", Value: order.PONumber},
			{Name: "edi_retailer", Value: order.RetailerID},
			{Name: "correlation_id", Value: order.CorrelationID},
		},
	}}
}
