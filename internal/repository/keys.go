package repository

import (
	"fmt"
	"strings"
)

const ns = "storefront:v1"

// Key names kept from the browser storage layout.
const (
	KeyTheme                 = "theme"
	KeyAuthToken             = "authToken"
	KeyAuthUser              = "authUser"
	KeyAdminAuth             = "adminAuth"
	KeyCheckout              = "checkout"
	KeyMyEvents              = "myEvents"
	KeyAdminLocations        = "adminLocations"
	KeyAdminCategories       = "adminCategories"
	KeyAdminVisibleFilters   = "adminVisibleFilters"
	KeyAdminFiltersEnabled   = "adminFiltersEnabled"
	KeyAdminHiddenLocations  = "adminHiddenLocations"
	KeyAdminHiddenCategories = "adminHiddenCategories"
	KeyAdminEvents           = "adminEvents"
	KeyOrganizers            = "organizers"
)

const keyCheckoutInFlight = "checkoutInFlight"

// ProfileKey scopes name to a single browser profile.
func ProfileKey(profileID, name string) string {
	return fmt.Sprintf("%s:profile:%s:%s", ns, profileID, name)
}

// GlobalKey is shared by every profile.
func GlobalKey(name string) string {
	return fmt.Sprintf("%s:global:%s", ns, name)
}

func KeyCheckoutLock(profileID string) string {
	return ProfileKey(profileID, keyCheckoutInFlight)
}

func ChannelChanges() string {
	return ns + ":changes"
}

// ParseProfileKey is the inverse of ProfileKey.
func ParseProfileKey(key string) (profileID, name string, ok bool) {
	rest, found := strings.CutPrefix(key, ns+":profile:")
	if !found {
		return "", "", false
	}

	i := strings.LastIndexByte(rest, ':')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}

	return rest[:i], rest[i+1:], true
}
