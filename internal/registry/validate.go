package registry

// ValidateTaxID accepts 10-digit (organization) and 12-digit (person) tax IDs.
func ValidateTaxID(value string) (Identifier, error) {
	if !digitsOfLength(value, 10, 12) {
		return Identifier{}, &ValidationError{
			Field:  "tax id",
			Value:  value,
			Reason: "must contain 10 or 12 digits",
		}
	}
	return Identifier{Kind: KindTaxID, Value: value}, nil
}

// ValidateRegistrationNumber accepts 13- and 15-digit registration numbers.
func ValidateRegistrationNumber(value string) (Identifier, error) {
	if !digitsOfLength(value, 13, 15) {
		return Identifier{}, &ValidationError{
			Field:  "registration number",
			Value:  value,
			Reason: "must contain 13 or 15 digits",
		}
	}
	return Identifier{Kind: KindRegistrationNumber, Value: value}, nil
}

func digitsOfLength(value string, lengths ...int) bool {
	lengthOK := false
	for _, n := range lengths {
		if len(value) == n {
			lengthOK = true
			break
		}
	}
	if !lengthOK {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
