package model

// Category is a named grouping label for apps.
//
// Name is the unique key; App.Category matches it by string value, not by a
// structural foreign key — nothing stops an app from naming a category that
// has no record here.
//
// AppCount is computed on read (a count of apps whose category equals Name),
// never cached, so it cannot go stale under normal CRUD traffic.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	AppCount    int    `json:"appCount"`
}
