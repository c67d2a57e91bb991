package models

// Record is a single user, product or order. Apart from "id" (and
// "createdAt" on orders) every field is client supplied and kept as-is.
type Record map[string]any

func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Snapshot is the on-disk document: one array per collection.
type Snapshot struct {
	Users    []Record `json:"users"`
	Products []Record `json:"products"`
	Orders   []Record `json:"orders"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  Record `json:"user"`
}

type WishlistToggleResponse struct {
	Action   string `json:"action"`
	Wishlist []any  `json:"wishlist"`
}

type StatsResponse struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalProducts int     `json:"totalProducts"`
	TotalOrders   int     `json:"totalOrders"`
	Revenue       float64 `json:"revenue"`
}

type DeletedResponse struct {
	Deleted string `json:"deleted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
