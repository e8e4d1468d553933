package admin

import (
	"fmt"

	"github.com/kirinyoku/tix-storefront/internal/repository"
)

// Collection names an admin-curated string list.
type Collection string

const (
	Locations        Collection = "locations"
	Categories       Collection = "categories"
	HiddenLocations  Collection = "hiddenLocations"
	HiddenCategories Collection = "hiddenCategories"
	VisibleFilters   Collection = "visibleFilters"
)

var collectionKeys = map[Collection]string{
	Locations:        repository.KeyAdminLocations,
	Categories:       repository.KeyAdminCategories,
	HiddenLocations:  repository.KeyAdminHiddenLocations,
	HiddenCategories: repository.KeyAdminHiddenCategories,
	VisibleFilters:   repository.KeyAdminVisibleFilters,
}

func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if _, ok := collectionKeys[c]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownCollection)
	}
	return c, nil
}

func (c Collection) key() string {
	return repository.GlobalKey(collectionKeys[c])
}
