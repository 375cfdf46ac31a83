package models

// Recipe is the list representation: associations are reported as ids.
type Recipe struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"-"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       string  `json:"price"` // Decimal string, e.g. "5.00"
	Link        string  `json:"link"`
	Image       *string `json:"image"`
	Tags        []int64 `json:"tags"`
	Ingredients []int64 `json:"ingredients"`
}

// RecipeDetail expands the associations of a Recipe into full objects.
type RecipeDetail struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       string       `json:"price"`
	Link        string       `json:"link"`
	Image       *string      `json:"image"`
	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
}

// RecipeFilter narrows a recipe listing. A recipe matches a non-empty id list
// when it is associated with any of the ids; both lists must match when both
// are given.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeImage is the response body of an image upload.
type RecipeImage struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}
