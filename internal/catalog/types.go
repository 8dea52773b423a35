// Package catalog resolves the raw, loosely-typed records the upstream
// loader hands us into the non-optional types the storefront renders:
// ordered menu categories with their items, and the bookable service list.
package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// UncategorizedID is the sentinel category id for items without a category.
// The sentinel always sorts last regardless of display order.
const UncategorizedID = -1

// UncategorizedName labels the sentinel category on the storefront.
const UncategorizedName = "Other"

// Item is one menu entry. Contents are passed through untouched; the
// storefront core only cares about grouping and ordering.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int    `json:"price_cents"`
	ImageURL    string `json:"image_url,omitempty"`
	Available   bool   `json:"available"`
}

// Category is a resolved menu section. AnchorID is the DOM id the active
// section tracker scrolls to and observes.
type Category struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	DisplayOrder float64 `json:"display_order"`
	Items        []Item  `json:"items"`
}

// AnchorID returns the DOM anchor for this category's section.
func (c Category) AnchorID() string {
	if c.ID == UncategorizedID {
		return "category-other"
	}
	return "category-" + strconv.Itoa(c.ID)
}

// CategoryRecord is the upstream shape: every field optional, nils allowed.
type CategoryRecord struct {
	CategoryID   *int     `json:"category_id"`
	CategoryName *string  `json:"category_name"`
	DisplayOrder *float64 `json:"display_order"`
	Items        []Item   `json:"items"`
}

// ResolveCategories maps upstream records to resolved categories and applies
// the ordering invariant: display order ascending, the uncategorized
// sentinel always last, ties broken by case-insensitive name.
func ResolveCategories(records []CategoryRecord) []Category {
	out := make([]Category, 0, len(records))
	for _, rec := range records {
		cat := Category{
			ID:    UncategorizedID,
			Name:  UncategorizedName,
			Items: rec.Items,
		}
		if rec.CategoryID != nil && *rec.CategoryID >= 0 {
			cat.ID = *rec.CategoryID
			cat.Name = ""
			if rec.CategoryName != nil {
				cat.Name = *rec.CategoryName
			}
			if rec.DisplayOrder != nil {
				cat.DisplayOrder = *rec.DisplayOrder
			}
		}
		if cat.ID == UncategorizedID {
			cat.DisplayOrder = math.Inf(1)
		}
		if cat.Items == nil {
			cat.Items = []Item{}
		}
		out = append(out, cat)
	}
	SortCategories(out)
	return out
}

// SortCategories sorts in place per the ordering invariant.
func SortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := cats[i], cats[j]
		if a.ID == UncategorizedID != (b.ID == UncategorizedID) {
			return b.ID == UncategorizedID
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// Service is a bookable service catalog entry.
type Service struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	BufferMinutes   int    `json:"buffer_minutes"`
	PriceCents      int    `json:"price_cents"`
	ActiveBooking   bool   `json:"active_booking"`
}

// OccupancyDuration is the real interval a booking reserves: service
// duration plus turnaround buffer. This, not the raw duration, is what
// availability queries use.
func (s Service) OccupancyDuration() int {
	return s.DurationMinutes + s.BufferMinutes
}
