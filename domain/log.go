package domain

// Action names the stock movement a Log row records.
type Action string

const (
	ActionPurchase     Action = "PURCHASE"
	ActionUpdate       Action = "UPDATE"
	ActionSell         Action = "SELL"
	ActionSwapOutgoing Action = "SWAP_OUTGOING"
	ActionSwapIncoming Action = "SWAP_INCOMING"
)

// Log is an append-only audit row written together with the item
// mutation it describes.
type Log struct {
	ID          string  `db:"id" json:"id"`
	Action      Action  `db:"action" json:"action"`
	Details     string  `db:"details" json:"details"`
	ItemID      string  `db:"item_id" json:"itemId"`
	StoreID     string  `db:"store_id" json:"storeId"`
	Quantity    int     `db:"quantity" json:"quantity"`
	Purchaser   *string `db:"purchaser" json:"purchaser,omitempty"`
	FromStoreID *string `db:"from_store_id" json:"fromStoreId,omitempty"`
	ToStoreID   *string `db:"to_store_id" json:"toStoreId,omitempty"`
	CreatedAt   string  `db:"created_at" json:"createdAt"`
}
