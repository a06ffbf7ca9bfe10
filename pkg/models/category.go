package models

// Category represents a user-defined link category
type Category struct {
	ID     string `json:"_id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`
}

// CategoryRequest is the body of add-new-category and edit-category
type CategoryRequest struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

// Validate reports every required field that is missing
func (r *CategoryRequest) Validate() error {
	var missing []string
	if r.Name == nil {
		missing = append(missing, "name")
	}
	if r.Icon == nil {
		missing = append(missing, "icon")
	}
	if r.Color == nil {
		missing = append(missing, "color")
	}
	return newValidationError(missing)
}

// CategoriesResponse is the body of get-all-categories
type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}
