package entity

import "time"

// EventSaleCreated is the envelope type of the sale-created message.
const EventSaleCreated = "sale.created"

// SaleCreatedData is the payload of a sale-created event.
type SaleCreatedData struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	StaffID     string    `json:"staffId"`
	Quantity    int       `json:"quantity"`
	TotalAmount int64     `json:"totalAmount"`
	SoldAt      time.Time `json:"soldAt"`
}

// SaleCreated is published to the broker after a sale commits. Delivery is
// at-least-once; consumers must dedupe on Data.ID.
type SaleCreated struct {
	Event string          `json:"event"`
	Data  SaleCreatedData `json:"data"`
}

func (e SaleCreated) EventType() string { return EventSaleCreated }

// NewSaleCreated builds the event envelope for a committed sale.
func NewSaleCreated(s Sale) SaleCreated {
	return SaleCreated{
		Event: EventSaleCreated,
		Data: SaleCreatedData{
			ID:          s.ID,
			ProductID:   s.ProductID,
			StaffID:     s.StaffID,
			Quantity:    s.Quantity,
			TotalAmount: s.TotalAmount,
			SoldAt:      s.SoldAt,
		},
	}
}
