package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is an account owner. A user's UserID is its own ID so the generic
// owner-scoped repository applies to the users collection too.
type User struct {
	Base         `bson:",inline"`
	Sub          string `bson:"sub,omitempty" json:"sub,omitempty"` // OIDC subject for SSO accounts
	Email        string `bson:"email" json:"email"`
	Name         string `bson:"name" json:"name"`
	Company      string `bson:"company,omitempty" json:"company,omitempty"`
	PasswordHash string `bson:"passwordHash,omitempty" json:"-"`
}

func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Name, validation.Length(0, 120)),
	)
}
