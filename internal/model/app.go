// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// App is a catalog entry: one distributable APK package and its metadata.
//
// The `json:"..."` tags control how the struct serializes over the API.
// Field names mirror what the storefront and admin clients expect.
//
// Derived fields:
//   - Rating is the arithmetic mean of all Review.Rating values for this app,
//     recomputed by the store on every review write.
//   - Reviews is the count of Review documents referencing this app.
//   - Downloads is incremented atomically by the download endpoint.
//
// Icon holds either a stored image filename (served under /uploads/) or an
// inline symbol such as an emoji — the clients render whichever they get.
type App struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Developer            string    `json:"developer"`
	Category             string    `json:"category"`
	Icon                 string    `json:"icon"`
	Version              string    `json:"version"`
	Size                 string    `json:"size"`
	Downloads            int64     `json:"downloads"`
	Rating               float64   `json:"rating"`
	Reviews              int       `json:"reviews"`
	Description          string    `json:"description"`
	FullDescription      string    `json:"fullDescription"`
	WhatsNew             string    `json:"whatsNew"`
	Permissions          []string  `json:"permissions"`
	Screenshots          []string  `json:"screenshots"`
	IsFeatured           bool      `json:"isFeatured"`
	APKFile              string    `json:"apkFile"`
	PackageName          string    `json:"packageName"`
	MinAndroidVersion    string    `json:"minAndroidVersion"`
	TargetAndroidVersion string    `json:"targetAndroidVersion"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// AppList is the paginated envelope returned by the list endpoint.
type AppList struct {
	Apps        []App `json:"apps"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalApps   int   `json:"totalApps"`
}

// Stats is the aggregate view returned by GET /api/stats.
// CategoryStats is derived from App.Category values, independent of the
// Category collection — a category appears here even without a Category record.
type Stats struct {
	TotalApps      int            `json:"totalApps"`
	TotalDownloads int64          `json:"totalDownloads"`
	CategoryStats  []CategoryStat `json:"categoryStats"`
}

// CategoryStat is one entry of Stats.CategoryStats.
type CategoryStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
