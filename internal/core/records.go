package core

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

// ReturnedPart is a validated returned-part record.
// Optional dates are nil when the sheet left them empty.
type ReturnedPart struct {
	PartName        string
	PartNumber      string
	CustomerName    string
	OrderNumber     string
	CustomerEmail   string
	TrackingNumber  string
	Carrier         string
	Status          string
	ReturnReason    string
	ShippedDate     *time.Time
	ExpectedArrival *time.Time
	Notes           string
}

// Order is a validated customer order record.
type Order struct {
	OrderNumber      string
	CustomerName     string
	CustomerEmail    string
	OrderDate        *time.Time
	Status           string
	OrderTotal       string
	TrackingNumber   string
	Carrier          string
	ShippedDate      *time.Time
	ExpectedDelivery *time.Time
	Notes            string
}

// ReturnedPartFromRecord builds a typed returned part from a valid record.
func ReturnedPartFromRecord(r Record) (ReturnedPart, error) {
	shipped, err := r.date("shippedDate")
	if err != nil {
		return ReturnedPart{}, err
	}
	arrival, err := r.date("expectedArrival")
	if err != nil {
		return ReturnedPart{}, err
	}

	return ReturnedPart{
		PartName:        r["partName"],
		PartNumber:      r["partNumber"],
		CustomerName:    r["customerName"],
		OrderNumber:     r["orderNumber"],
		CustomerEmail:   r["customerEmail"],
		TrackingNumber:  r["trackingNumber"],
		Carrier:         r["carrier"],
		Status:          r.or("status", schema.ReturnLifecycle.Initial()),
		ReturnReason:    r.or("returnReason", schema.DefaultReturnReason),
		ShippedDate:     shipped,
		ExpectedArrival: arrival,
		Notes:           r["notes"],
	}, nil
}

// OrderFromRecord builds a typed order from a valid record.
func OrderFromRecord(r Record) (Order, error) {
	ordered, err := r.date("orderDate")
	if err != nil {
		return Order{}, err
	}
	shipped, err := r.date("shippedDate")
	if err != nil {
		return Order{}, err
	}
	delivery, err := r.date("expectedDelivery")
	if err != nil {
		return Order{}, err
	}

	return Order{
		OrderNumber:      r["orderNumber"],
		CustomerName:     r["customerName"],
		CustomerEmail:    r["customerEmail"],
		OrderDate:        ordered,
		Status:           r.or("status", schema.OrderLifecycle.Initial()),
		OrderTotal:       r["orderTotal"],
		TrackingNumber:   r["trackingNumber"],
		Carrier:          r["carrier"],
		ShippedDate:      shipped,
		ExpectedDelivery: delivery,
		Notes:            r["notes"],
	}, nil
}

// DomainRecord builds the typed entity for a valid record of type rt.
func DomainRecord(rt schema.RecordType, r Record) (any, error) {
	switch rt {
	case schema.ReturnedPart:
		return ReturnedPartFromRecord(r)
	case schema.Order:
		return OrderFromRecord(r)
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownRecordType, rt)
	}
}

func (r Record) or(field, fallback string) string {
	if v, ok := r[field]; ok && v != "" {
		return v
	}
	return fallback
}

func (r Record) date(field string) (*time.Time, error) {
	v, ok := r[field]
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &t, nil
}
