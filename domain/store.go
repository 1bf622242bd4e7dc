package domain

// Store owns users, items, categories and logs. The slices are only
// populated by the eager-loading reads.
type Store struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Address    string     `db:"address" json:"address"`
	CreatedAt  string     `db:"created_at" json:"createdAt"`
	Users      []User     `db:"-" json:"users,omitempty"`
	Items      []Item     `db:"-" json:"items,omitempty"`
	Categories []Category `db:"-" json:"categories,omitempty"`
	Logs       []Log      `db:"-" json:"logs,omitempty"`
}
