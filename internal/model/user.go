package model

import (
	"fmt"
	"regexp"
	"strings"
)

var userIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,40}$`)

// User is the authenticated identity a pipeline run acts for.
// It is passed explicitly; nothing reads it from ambient state.
type User struct {
	ID        string `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}

// UserAgent builds the header SEC requires: name plus contact email
func (u User) UserAgent() string {
	return u.FirstName + u.LastName + " (" + u.Email + ")"
}

// Validate checks the fields the pipeline depends on
func (u User) Validate() error {
	if err := ValidateUserID(u.ID); err != nil {
		return err
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email required", ErrInvalidUser)
	}
	return nil
}

// ValidateUserID rejects IDs that cannot be embedded in table and file names
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: id %q must match %s", ErrInvalidUser, id, userIDPattern)
	}
	return nil
}

// FinancialsTable is the per-user Raw Financials table name
func FinancialsTable(userID string) string {
	return "RawFinancials_" + userID
}

// AttributesTable is the per-user Account Attributes table name
func AttributesTable(userID string) string {
	return "AccountAttributes_" + userID
}

// ExportFileName is the per-user CSV artifact name
func ExportFileName(userID string) string {
	return "user_" + userID + "_export.csv"
}
