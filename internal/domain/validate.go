package domain

import (
	"fmt"
	"strings"
)

// Curation is the admin-maintained taxonomy that shapes the catalog.
type Curation struct {
	Locations        []string `json:"locations"`
	Categories       []string `json:"categories"`
	HiddenLocations  []string `json:"hiddenLocations"`
	HiddenCategories []string `json:"hiddenCategories"`
	VisibleFilters   []string `json:"visibleFilters"`
}

// Validate checks required fields only. Prices and quantities are passed
// through to the backend as entered.
func (r CreateEventRequest) Validate() error {
	var missing []string

	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Location) == "" {
		missing = append(missing, "location")
	}
	if r.DateTime.IsZero() {
		missing = append(missing, "dateTime")
	}
	for i, t := range r.TicketTypes {
		if strings.TrimSpace(t.Name) == "" {
			missing = append(missing, fmt.Sprintf("ticketTypes[%d].name", i))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), ErrValidation)
	}
	return nil
}
