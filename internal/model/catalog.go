package model

// Category groups products for the checkout screens. Reference data, owned
// by the central store and refreshed by the catalog download pass.
type Category struct {
	Syncable
	Name string `json:"name"`
}

// Customer is a known buyer, used for credit sales and purchase history.
type Customer struct {
	Syncable
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}
