package model

import (
	"time"
)

type User struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	StripeCustomerID *string   `db:"stripe_customer_id"`
	CreatedAt        time.Time `db:"created_at"`
}

func (u *User) HasStripeCustomer() bool {
	return u.StripeCustomerID != nil && *u.StripeCustomerID != ""
}
