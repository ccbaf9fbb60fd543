package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressNormalize(t *testing.T) {
	t.Run("trims every field", func(t *testing.T) {
		a := Address{
			Line1:      "  123 Main St ",
			City:       " Tampa ",
			State:      " FL ",
			PostalCode: " 33601 ",
			Country:    " US ",
		}.Normalize()
		assert.Equal(t, "123 Main St", a.Line1)
		assert.Equal(t, "Tampa", a.City)
		assert.Equal(t, "FL", a.State)
		assert.Equal(t, "33601", a.PostalCode)
		assert.Equal(t, "US", a.Country)
	})

	t.Run("defaults country to US", func(t *testing.T) {
		a := Address{Line1: "1 Elm", City: "Austin", State: "TX", PostalCode: "78701"}.Normalize()
		assert.Equal(t, "US", a.Country)
	})
}

func TestAddressComplete(t *testing.T) {
	complete := Address{Line1: "1 Elm", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
	assert.True(t, complete.Complete())
	assert.Empty(t, complete.MissingFields())

	t.Run("reports each missing field", func(t *testing.T) {
		a := Address{Line1: "1 Elm", City: "Austin"}
		assert.False(t, a.Complete())
		assert.ElementsMatch(t, []string{"state", "postalCode", "country"}, a.MissingFields())
	})

	t.Run("whitespace-only fields count as missing", func(t *testing.T) {
		a := complete
		a.PostalCode = "   "
		assert.False(t, a.Complete())
		assert.Equal(t, []string{"postalCode"}, a.MissingFields())
	})
}
