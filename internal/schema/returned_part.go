package schema

import "regexp"

// ReturnLifecycle is the status vocabulary of a returned part, from the
// customer shipping it back to the inspection verdict.
var ReturnLifecycle = &Lifecycle{
	Stages: []string{"shipped", "in_transit", "arrived", "inspecting", "inspected"},
	Rules: []Rule{
		{Keyword: "transit", Stage: "in_transit"},
		{Keyword: "arriv", Stage: "arrived"},
		{Keyword: "deliver", Stage: "arrived"},
		{Keyword: "receiv", Stage: "arrived"},
		{Keyword: "inspected", Stage: "inspected"},
		{Keyword: "inspect", Stage: "inspecting"},
		{Keyword: "complet", Stage: "inspected"},
		{Keyword: "finish", Stage: "inspected"},
		{Keyword: "ship", Stage: "shipped"},
	},
}

// ReturnReasons is the canonical return reason vocabulary.
var ReturnReasons = []string{"Defective", "Wrong Part", "Warranty", "Quality Issue"}

// DefaultReturnReason is assigned when no reason was supplied.
const DefaultReturnReason = "Customer Return"

// Carriers is the advisory carrier vocabulary shared by both record types.
var Carriers = []string{"UPS", "FedEx", "USPS", "DHL", "Other"}

var (
	partNumberPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._/#-]*$`)
	orderNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._/#-]*$`)
)

func init() {
	Register(returnedPartSchema())
}

func returnedPartSchema() Schema {
	return Schema{
		Type:  ReturnedPart,
		Label: "Returned Parts",
		Fields: []FieldSpec{
			{
				Name: "partName", Label: "Part Name", Type: FieldText,
				Required: true, MaxLength: 200,
				Synonyms: []string{"part", "part description", "description", "item", "item name", "component"},
			},
			{
				Name: "partNumber", Label: "Part Number", Type: FieldText,
				Required: true, MaxLength: 50, Pattern: partNumberPattern,
				Synonyms: []string{"part #", "part no", "part num", "pn", "p/n", "sku", "item number", "item #"},
			},
			{
				Name: "customerName", Label: "Customer Name", Type: FieldText,
				Required: true, MinLength: 2, MaxLength: 100,
				Synonyms: []string{"customer", "client", "client name", "account name", "buyer"},
			},
			{
				Name: "orderNumber", Label: "Order Number", Type: FieldText,
				Required: true, MaxLength: 50, Pattern: orderNumberPattern,
				Synonyms: []string{"order #", "order no", "order id", "order", "po number", "po #", "rma number", "rma #"},
			},
			{
				Name: "customerEmail", Label: "Customer Email", Type: FieldEmail,
				Synonyms: []string{"email", "e-mail", "email address", "contact email"},
			},
			{
				Name: "trackingNumber", Label: "Tracking Number", Type: FieldText,
				Recommended: true, RecommendMessage: "Tracking information recommended", MaxLength: 100,
				Synonyms: []string{"tracking", "tracking #", "tracking no", "tracking id", "waybill", "awb"},
			},
			{
				Name: "carrier", Label: "Carrier", Type: FieldEnum,
				AllowedValues: Carriers,
				Synonyms:      []string{"shipping carrier", "courier", "shipper", "shipped via"},
			},
			{
				Name: "status", Label: "Status", Type: FieldStatus,
				Lifecycle:     ReturnLifecycle,
				AllowedValues: ReturnLifecycle.Stages,
				Synonyms:      []string{"return status", "state", "shipment status"},
			},
			{
				Name: "returnReason", Label: "Return Reason", Type: FieldReason,
				MaxLength: 200, AllowedValues: ReturnReasons,
				Synonyms: []string{"reason", "reason for return", "rma reason", "return cause"},
			},
			{
				Name: "shippedDate", Label: "Shipped Date", Type: FieldDate,
				Recommended: true, RecommendMessage: "Ship date recommended",
				Synonyms: []string{"ship date", "date shipped", "shipped", "shipping date", "sent date", "sent on"},
			},
			{
				Name: "expectedArrival", Label: "Expected Arrival", Type: FieldDate,
				Synonyms: []string{"eta", "expected date", "arrival date", "expected delivery", "due date"},
			},
			{
				Name: "notes", Label: "Notes", Type: FieldText,
				MaxLength: 1000,
				Synonyms:  []string{"note", "comments", "comment", "remarks"},
			},
		},
		UniqueKey:    []string{"partNumber", "orderNumber"},
		ShippedField: "shippedDate",
		ArrivalField: "expectedArrival",
		Example: []map[string]string{
			{
				"partName": "Hydraulic Pump Seal", "partNumber": "HP-2210", "customerName": "Acme Fabrication",
				"orderNumber": "SO-10482", "customerEmail": "returns@acmefab.com", "trackingNumber": "1Z999AA10123456784",
				"carrier": "UPS", "status": "shipped", "returnReason": "Defective", "shippedDate": "2024-01-15",
				"expectedArrival": "2024-01-19", "notes": "Leaking at flange",
			},
			{
				"partName": "Control Board", "partNumber": "CB-0917", "customerName": "Northwind Motors",
				"orderNumber": "SO-10511", "customerEmail": "", "trackingNumber": "794644790132",
				"carrier": "FedEx", "status": "in_transit", "returnReason": "Wrong Part", "shippedDate": "2024-01-16",
				"expectedArrival": "2024-01-22", "notes": "",
			},
		},
	}
}
