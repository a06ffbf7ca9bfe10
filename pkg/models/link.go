package models

// Link represents a saved bookmark owned by a single user
type Link struct {
	ID          string  `json:"_id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Category    string  `json:"category"`
	Project     string  `json:"project"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// LinkRequest is the body of add-new-link and edit-link.
// Pointer fields distinguish an absent field from an empty string.
type LinkRequest struct {
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Category    *string `json:"category"`
	Project     *string `json:"project"`
	Description *string `json:"description"`
}

// Validate reports every required field that is missing
func (r *LinkRequest) Validate() error {
	var missing []string
	if r.Title == nil {
		missing = append(missing, "title")
	}
	if r.URL == nil {
		missing = append(missing, "url")
	}
	if r.Category == nil {
		missing = append(missing, "category")
	}
	if r.Project == nil {
		missing = append(missing, "project")
	}
	return newValidationError(missing)
}

// LinksResponse is the body of get-all-links
type LinksResponse struct {
	Links []Link `json:"links"`
}
