package shipping

import "strings"

// DefaultCountry is assumed when a destination omits the country.
const DefaultCountry = "US"

// Address represents a shipping origin or destination.
// Name, Phone and Email are optional contact fields that carriers accept
// but do not require for rating.
type Address struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Normalize returns a copy with all fields trimmed and the country
// defaulted when absent.
func (a Address) Normalize() Address {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Email = strings.TrimSpace(a.Email)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

// Complete reports whether the address carries every field a carrier
// needs to rate a shipment.
func (a Address) Complete() bool {
	return len(a.MissingFields()) == 0
}

// MissingFields returns the names of required fields that are empty
// after trimming. Country is checked after Normalize has applied the
// default, so it only appears when the caller bypassed normalization.
func (a Address) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("line1", a.Line1)
	check("city", a.City)
	check("state", a.State)
	check("postalCode", a.PostalCode)
	check("country", a.Country)
	return missing
}
