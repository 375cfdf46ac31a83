package models

// Tag is a user-owned label attached to recipes.
type Tag struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}

// Ingredient is a user-owned ingredient referenced by recipes.
type Ingredient struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}
