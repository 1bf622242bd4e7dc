package domain

type Item struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Price      float64 `db:"price" json:"price"`
	Quantity   int     `db:"quantity" json:"quantity"`
	CategoryID string  `db:"category_id" json:"categoryId"`
	StoreID    string  `db:"store_id" json:"storeId"`
	ImageURL   *string `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt  string  `db:"created_at" json:"createdAt"`
	UpdatedAt  string  `db:"updated_at" json:"updatedAt"`
}
