// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package requestpool

import (
	"fmt"
	"strings"
)

// Category classifies a request. The numeric order is the precedence order
// of a scheduling pass.
type Category int

const (
	// CategoryInteraction is work the user is waiting on right now.
	CategoryInteraction Category = iota

	// CategoryThumbnail is work for small previews.
	CategoryThumbnail

	// CategoryPrefetch is speculative work.
	CategoryPrefetch

	// NumCategories is the number of categories.
	NumCategories
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryInteraction:
		return "interaction"
	case CategoryThumbnail:
		return "thumbnail"
	case CategoryPrefetch:
		return "prefetch"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= 0 && c < NumCategories
}

// ParseCategory returns the category named s, ignoring case.
func ParseCategory(s string) (Category, error) {
	for c := range NumCategories {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
