package schema

import "regexp"

// OrderLifecycle is the status vocabulary of a customer order.
var OrderLifecycle = &Lifecycle{
	Stages: []string{"pending", "processing", "shipped", "delivered", "cancelled", "returned"},
	Rules: []Rule{
		{Keyword: "cancel", Stage: "cancelled"},
		{Keyword: "void", Stage: "cancelled"},
		{Keyword: "return", Stage: "returned"},
		{Keyword: "refund", Stage: "returned"},
		{Keyword: "deliver", Stage: "delivered"},
		{Keyword: "arriv", Stage: "delivered"},
		{Keyword: "receiv", Stage: "delivered"},
		{Keyword: "complet", Stage: "delivered"},
		{Keyword: "ship", Stage: "shipped"},
		{Keyword: "transit", Stage: "shipped"},
		{Keyword: "dispatch", Stage: "shipped"},
		{Keyword: "process", Stage: "processing"},
		{Keyword: "confirm", Stage: "processing"},
		{Keyword: "pick", Stage: "processing"},
	},
}

var amountPattern = regexp.MustCompile(`^-?[$€£]?\s?\d{1,3}(,?\d{3})*(\.\d{1,2})?$`)

func init() {
	Register(orderSchema())
}

func orderSchema() Schema {
	return Schema{
		Type:  Order,
		Label: "Orders",
		Fields: []FieldSpec{
			{
				Name: "orderNumber", Label: "Order Number", Type: FieldText,
				Required: true, MaxLength: 50, Pattern: orderNumberPattern,
				Synonyms: []string{"order #", "order no", "order id", "order", "po number", "po #", "sales order"},
			},
			{
				Name: "customerName", Label: "Customer Name", Type: FieldText,
				Required: true, MinLength: 2, MaxLength: 100,
				Synonyms: []string{"customer", "client", "client name", "account name", "buyer", "bill to"},
			},
			{
				Name: "customerEmail", Label: "Customer Email", Type: FieldEmail,
				Synonyms: []string{"email", "e-mail", "email address", "contact email"},
			},
			{
				Name: "orderDate", Label: "Order Date", Type: FieldDate,
				Recommended: true, RecommendMessage: "Order date recommended",
				Synonyms: []string{"date", "ordered", "ordered on", "order placed", "purchase date"},
			},
			{
				Name: "status", Label: "Status", Type: FieldStatus,
				Lifecycle:     OrderLifecycle,
				AllowedValues: OrderLifecycle.Stages,
				Synonyms:      []string{"order status", "state", "fulfillment status"},
			},
			{
				Name: "orderTotal", Label: "Order Total", Type: FieldText,
				Pattern:  amountPattern,
				Synonyms: []string{"total", "amount", "order amount", "grand total", "value"},
			},
			{
				Name: "trackingNumber", Label: "Tracking Number", Type: FieldText,
				MaxLength: 100,
				Synonyms:  []string{"tracking", "tracking #", "tracking no", "tracking id", "waybill", "awb"},
			},
			{
				Name: "carrier", Label: "Carrier", Type: FieldEnum,
				AllowedValues: Carriers,
				Synonyms:      []string{"shipping carrier", "courier", "shipper", "shipped via"},
			},
			{
				Name: "shippedDate", Label: "Shipped Date", Type: FieldDate,
				Synonyms: []string{"ship date", "date shipped", "shipped", "shipping date", "dispatch date"},
			},
			{
				Name: "expectedDelivery", Label: "Expected Delivery", Type: FieldDate,
				Synonyms: []string{"eta", "expected date", "delivery date", "expected arrival", "due date"},
			},
			{
				Name: "notes", Label: "Notes", Type: FieldText,
				MaxLength: 1000,
				Synonyms:  []string{"note", "comments", "comment", "remarks"},
			},
		},
		UniqueKey:    []string{"orderNumber"},
		ShippedField: "shippedDate",
		ArrivalField: "expectedDelivery",
		Example: []map[string]string{
			{
				"orderNumber": "SO-10482", "customerName": "Acme Fabrication", "customerEmail": "purchasing@acmefab.com",
				"orderDate": "2024-01-08", "status": "shipped", "orderTotal": "1,249.00", "trackingNumber": "1Z999AA10123456784",
				"carrier": "UPS", "shippedDate": "2024-01-10", "expectedDelivery": "2024-01-14", "notes": "",
			},
			{
				"orderNumber": "SO-10511", "customerName": "Northwind Motors", "customerEmail": "",
				"orderDate": "2024-01-11", "status": "processing", "orderTotal": "389.50", "trackingNumber": "",
				"carrier": "", "shippedDate": "", "expectedDelivery": "", "notes": "Backordered gasket kit",
			},
		},
	}
}
