// Package validate checks form input before anything is sent to the server.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// FieldError is a single failed check.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Errors collects field errors in the order the checks ran.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Field returns the first message recorded for field, or "".
func (e Errors) Field(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Checker accumulates errors. Only the first failure per field is kept.
type Checker struct {
	errs Errors
}

func (c *Checker) failed(field string) bool {
	return c.errs.Field(field) != ""
}

func (c *Checker) add(field, format string, args ...any) {
	if c.failed(field) {
		return
	}
	c.errs = append(c.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Required fails when value is blank.
func (c *Checker) Required(field, label, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, "%s is required", label)
	}
}

// MinLen fails when value has fewer than n characters. Blank values are left
// to Required.
func (c *Checker) MinLen(field, label, value string, n int) {
	if value == "" {
		return
	}
	if utf8.RuneCountInString(value) < n {
		c.add(field, "%s must be at least %d characters", label, n)
	}
}

// Email fails when value is not a bare address such as a@b.com.
func (c *Checker) Email(field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		c.add(field, "Invalid email address")
	}
}

// OneOf fails when value is not in allowed.
func (c *Checker) OneOf(field, label, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.add(field, "%s must be one of %s", label, strings.Join(allowed, ", "))
}

// Err returns the collected errors, or nil.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

// Credentials checks login input: email required and well-formed, password
// at least 6 characters.
func Credentials(email, password string) error {
	var c Checker
	c.Required("email", "Email", email)
	c.Email("email", email)
	c.Required("password", "Password", password)
	c.MinLen("password", "Password", password, 6)
	return c.Err()
}

// Registration checks sign-up input: name at least 4 characters plus the
// login rules.
func Registration(name, email, password string) error {
	var c Checker
	c.Required("name", "Name", name)
	c.MinLen("name", "Name", name, 4)
	c.Required("email", "Email", email)
	c.Email("email", email)
	c.Required("password", "Password", password)
	c.MinLen("password", "Password", password, 6)
	return c.Err()
}
