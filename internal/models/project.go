package models

// Project is one record of the site manifest (projects.json).
// Title is the lookup key; it is assumed unique but never enforced here.
type Project struct {
	Title       string `json:"title"`
	Repository  string `json:"repository"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
}
