package domain

type User struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"`
	StoreID   string `json:"storeId" db:"store_id"`
	CreatedAt string `json:"createdAt,omitempty" db:"created_at"`
	Store     *Store `json:"store,omitempty" db:"-"`
}
