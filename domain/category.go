package domain

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	StoreID   string `db:"store_id" json:"storeId"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}
