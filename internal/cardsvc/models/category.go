package models

import "strings"

// SentinelCategory is the stored label of cards without a category.
const SentinelCategory = "indefinida"

// FilterAllLabel selects every category when used as a filter.
const FilterAllLabel = "all"

// Category is either NoCategory or a named label. The zero value is NoCategory.
type Category struct {
	name string
}

// NoCategory is the category of cards created without one.
func NoCategory() Category {
	return Category{}
}

// Named returns a user chosen category. Blank labels and the sentinel label
// collapse to NoCategory: a category literally named "indefinida" cannot be
// told apart from no category, and files cards under it.
func Named(label string) Category {
	return ParseCategory(label)
}

// ParseCategory converts a stored or user supplied label to a Category.
func ParseCategory(label string) Category {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == SentinelCategory {
		return NoCategory()
	}
	return Category{name: label}
}

// IsNone reports whether c is NoCategory.
func (c Category) IsNone() bool {
	return c.name == ""
}

// Label returns the user chosen label, empty for NoCategory.
func (c Category) Label() string {
	return c.name
}

// String returns the persisted form.
func (c Category) String() string {
	if c.IsNone() {
		return SentinelCategory
	}
	return c.name
}

// CategoryFilter restricts listings and draws to one category, or none.
type CategoryFilter struct {
	all      bool
	category Category
}

// AllCategories matches every card.
func AllCategories() CategoryFilter {
	return CategoryFilter{all: true}
}

// OnlyCategory matches cards of one category.
func OnlyCategory(c Category) CategoryFilter {
	return CategoryFilter{category: c}
}

// ParseFilter reads the wire form of a filter: "all" or an empty value match
// everything, anything else is parsed as a category.
func ParseFilter(value string) CategoryFilter {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == FilterAllLabel {
		return AllCategories()
	}
	return OnlyCategory(ParseCategory(v))
}

// IsAll reports whether the filter matches every category.
func (f CategoryFilter) IsAll() bool {
	return f.all
}

// Category returns the selected category. It is meaningless when IsAll is true.
func (f CategoryFilter) Category() Category {
	return f.category
}

// StoreValue returns the persisted category to match, or "" for all.
func (f CategoryFilter) StoreValue() string {
	if f.all {
		return ""
	}
	return f.category.String()
}

func (f CategoryFilter) String() string {
	if f.all {
		return FilterAllLabel
	}
	return f.category.String()
}
