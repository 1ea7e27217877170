package model

import "strings"

// Category groups catalog services for selection menus and listings.
type Category string

const (
	CategoryDownloadClients Category = "download_clients"
	CategoryIndexers        Category = "indexers"
	CategoryMediaManagement Category = "media_management"
	CategoryMediaServers    Category = "media_servers"
	CategoryRequests        Category = "requests"
	CategoryUtility         Category = "utility"
)

// categoryOrder is the display order for known categories. Categories
// declared only in a custom catalog sort after these, alphabetically.
var categoryOrder = []Category{
	CategoryMediaServers,
	CategoryMediaManagement,
	CategoryIndexers,
	CategoryDownloadClients,
	CategoryRequests,
	CategoryUtility,
}

// Rank returns the display position of a category.
func (c Category) Rank() int {
	for i, known := range categoryOrder {
		if known == c {
			return i
		}
	}
	return len(categoryOrder)
}

// Less orders categories by rank, then by id.
func (c Category) Less(other Category) bool {
	if c.Rank() != other.Rank() {
		return c.Rank() < other.Rank()
	}
	return c < other
}

// Title returns a fallback display label when the catalog declares none.
func (c Category) Title() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
