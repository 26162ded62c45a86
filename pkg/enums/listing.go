package enums

import "fmt"

// ListingStatus tracks a listing through moderation.
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusApproved ListingStatus = "approved"
	ListingStatusRejected ListingStatus = "rejected"
	ListingStatusRemoved  ListingStatus = "removed"
)

var validListingStatuses = []ListingStatus{
	ListingStatusPending,
	ListingStatusApproved,
	ListingStatusRejected,
	ListingStatusRemoved,
}

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}

// ListingCategory represents the material categories supported by the catalog.
type ListingCategory string

const (
	ListingCategoryPaper       ListingCategory = "paper"
	ListingCategoryPlastic     ListingCategory = "plastic"
	ListingCategoryMetal       ListingCategory = "metal"
	ListingCategoryGlass       ListingCategory = "glass"
	ListingCategoryTextile     ListingCategory = "textile"
	ListingCategoryElectronics ListingCategory = "electronics"
	ListingCategoryWood        ListingCategory = "wood"
	ListingCategoryOrganic     ListingCategory = "organic"
	ListingCategoryOther       ListingCategory = "other"
)

var validListingCategories = []ListingCategory{
	ListingCategoryPaper,
	ListingCategoryPlastic,
	ListingCategoryMetal,
	ListingCategoryGlass,
	ListingCategoryTextile,
	ListingCategoryElectronics,
	ListingCategoryWood,
	ListingCategoryOrganic,
	ListingCategoryOther,
}

// String implements fmt.Stringer.
func (c ListingCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ListingCategory.
func (c ListingCategory) IsValid() bool {
	for _, candidate := range validListingCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseListingCategory converts raw input into a ListingCategory.
func ParseListingCategory(value string) (ListingCategory, error) {
	for _, candidate := range validListingCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing category %q", value)
}
