// Package contact loads the HR contacts a campaign is sent to.
//
// Contacts come from a CSV file whose header row names at least the
// name, email and company columns. Rows that do not yield a usable
// contact are skipped and reported, never corrected.
package contact

import (
	"fmt"
	"strings"
)

// Column names every contact file must carry in its header row
const (
	ColumnName    = "name"
	ColumnEmail   = "email"
	ColumnCompany = "company"
)

// RequiredColumns lists the header columns in the order they are reported
var RequiredColumns = []string{ColumnName, ColumnEmail, ColumnCompany}

// Contact is one validated recipient
type Contact struct {
	Name    string
	Email   string
	Company string
}

// String formats the contact for log lines
func (c Contact) String() string {
	return fmt.Sprintf("%s <%s> at %s", c.Name, c.Email, c.Company)
}

// IssueReason says why a row was skipped
type IssueReason int

const (
	// ReasonMissingFields means one or more required fields were blank
	ReasonMissingFields IssueReason = iota + 1
	// ReasonInvalidEmail means the email value failed the format check
	ReasonInvalidEmail
)

// RowIssue describes a data row that was dropped from the result
type RowIssue struct {
	Row     int // 1-based, the header is row 1
	Reason  IssueReason
	Missing []string
	Email   string
}

func (i RowIssue) String() string {
	switch i.Reason {
	case ReasonMissingFields:
		return fmt.Sprintf("Skipping row %d: Missing %s", i.Row, strings.Join(i.Missing, ", "))
	case ReasonInvalidEmail:
		return fmt.Sprintf("Skipping row %d: Invalid email format '%s'", i.Row, i.Email)
	default:
		return fmt.Sprintf("Skipping row %d", i.Row)
	}
}

// Result is the outcome of reading a contact file
type Result struct {
	Contacts []Contact
	Skipped  []RowIssue
}

// ValidEmail reports whether s passes the loose format check: it must
// contain both an "@" and a ".", anywhere in the string.
func ValidEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}
