package model

import "time"

// Transfer statuses. A transfer starts pending, moves to in_transit when the
// origin ships it, and ends completed when the destination confirms receipt.
// Cancellation is only possible before shipment.
const (
	TransferPending   = "pending"
	TransferInTransit = "in_transit"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

// Transfer is a tracked movement of inventory between two stores. Origin and
// destination each mutate their own stock: the origin loses what it shipped,
// the destination gains what it actually counted on arrival.
type Transfer struct {
	Syncable
	OriginStoreID      string         `json:"origin_store_id"`
	DestinationStoreID string         `json:"destination_store_id"`
	Status             string         `json:"status"`
	Notes              string         `json:"notes,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	ShippedAt          *time.Time     `json:"shipped_at,omitempty"`
	ReceivedAt         *time.Time     `json:"received_at,omitempty"`
	Items              []TransferItem `json:"items,omitempty"`
}

// TransferItem is one product line of a transfer. QtyShipped is set at ship
// time, QtyReceived at receipt. The two may legitimately differ; the gap is
// kept as recorded data for manual reconciliation, never folded back into
// either store's stock figure.
type TransferItem struct {
	ID           string `json:"id"`
	TransferID   string `json:"transfer_id"`
	ProductID    string `json:"product_id"`
	QtyRequested int    `json:"qty_requested"`
	QtyShipped   *int   `json:"qty_shipped,omitempty"`
	QtyReceived  *int   `json:"qty_received,omitempty"`
}

// Discrepancy returns qty_received - qty_shipped, or false until both sides
// of the movement have been recorded.
func (i *TransferItem) Discrepancy() (int, bool) {
	if i.QtyShipped == nil || i.QtyReceived == nil {
		return 0, false
	}
	return *i.QtyReceived - *i.QtyShipped, true
}
