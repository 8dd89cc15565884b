package registry

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTaxIDAcceptsGeneratedIDs(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(42)
	for i := 0; i < 50; i++ {
		for _, pattern := range []string{"##########", "############"} {
			value := faker.Numerify(pattern)
			id, err := ValidateTaxID(value)
			require.NoError(t, err, value)
			assert.Equal(t, KindTaxID, id.Kind)
			assert.Equal(t, value, id.Value)
		}
	}
}

func TestValidateTaxIDRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":         "",
		"too short":     "123456789",
		"eleven":        "12345678901",
		"thirteen":      "1234567890123",
		"letters":       "77000000AB",
		"spaces":        "7700 000000",
		"unicode digit": "770000000٣",
		"signed":        "-770000000",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ValidateTaxID(value)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), "10 or 12 digits")
		})
	}
}

func TestValidateRegistrationNumber(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"1027700132195", "304500116000157"} {
		id, err := ValidateRegistrationNumber(value)
		require.NoError(t, err)
		assert.Equal(t, KindRegistrationNumber, id.Kind)
	}
	for _, value := range []string{"", "7700000000", "10277001321951", "10277001321A5"} {
		_, err := ValidateRegistrationNumber(value)
		require.Error(t, err, value)
		assert.True(t, IsValidation(err))
	}
}

func TestIdentifierString(t *testing.T) {
	t.Parallel()

	id := Identifier{Kind: KindTaxID, Value: "7700000000"}
	assert.Equal(t, "tax_id:7700000000", id.String())
}
