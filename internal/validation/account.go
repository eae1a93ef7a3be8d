package validation

import "storefront/internal/models"

// Account validates a new account before it reaches the directory.
func (v *Validator) Account(email, name, accountType, invitedBy string) {
	v.Required("email", email)
	v.Email("email", email)
	v.MaxLength("email", email, MaxEmailLength)

	v.Required("name", name)
	v.MaxLength("name", name, MaxNameLength)

	_, err := models.ParseAccountType(accountType)
	v.Check(err == nil, "account_type", "must be BUSINESS or INDIVIDUAL")

	if invitedBy != "" {
		v.MaxLength("invited_by", invitedBy, MaxIdentifierLength)
	}
}
