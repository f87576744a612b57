package handler

import (
	"net/mail"
	"strings"

	"github.com/avolkov/inkpress/internal/util"
)

// ValidationErrors maps form field names to error messages. Validation
// failures re-render the form with these messages instead of redirecting.
type ValidationErrors map[string]string

// OK reports whether validation passed.
func (v ValidationErrors) OK() bool {
	return len(v) == 0
}

// Get returns the message for a field, or "" when the field is valid.
func (v ValidationErrors) Get(field string) string {
	return v[field]
}

const (
	minPasswordLength = 8
	maxTitleLength    = 200
	maxNameLength     = 100
	maxContactLength  = 15
	maxSubjectLength  = 200
	maxMessageLength  = 10000
	maxBioLength      = 2000
)

// registerForm holds the registration form values for validation and
// re-rendering.
type registerForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Confirm   string
}

func (f registerForm) validate() ValidationErrors {
	errs := ValidationErrors{}

	if f.Username == "" {
		errs["username"] = "Username is required"
	} else if !util.IsValidUsername(f.Username) {
		errs["username"] = "Username must be 3-30 characters using letters, digits, dots, hyphens or underscores"
	}

	validateEmailField(errs, f.Email)

	if f.Password == "" {
		errs["password"] = "Password is required"
	} else if len(f.Password) < minPasswordLength {
		errs["password"] = "Password must be at least 8 characters"
	}

	if f.Confirm != f.Password {
		errs["confirm"] = "Passwords do not match"
	}

	return errs
}

// postForm holds post create/edit form values.
type postForm struct {
	Title      string
	Content    string
	CategoryID string
	Tags       string
	Status     string
}

func (f postForm) validate() ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(f.Title) == "" {
		errs["title"] = "Title is required"
	} else if len(f.Title) > maxTitleLength {
		errs["title"] = "Title must be at most 200 characters"
	}

	if strings.TrimSpace(f.Content) == "" {
		errs["content"] = "Content is required"
	}

	return errs
}

// contactForm holds contact enquiry form values.
type contactForm struct {
	Name    string
	Email   string
	Contact string
	Subject string
	Message string
}

func (f contactForm) validate() ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Name is required"
	} else if len(f.Name) > maxNameLength {
		errs["name"] = "Name must be at most 100 characters"
	}

	validateEmailField(errs, f.Email)

	if strings.TrimSpace(f.Contact) == "" {
		errs["contact"] = "Contact number is required"
	} else if len(f.Contact) > maxContactLength {
		errs["contact"] = "Contact number must be at most 15 characters"
	}

	if strings.TrimSpace(f.Subject) == "" {
		errs["subject"] = "Subject is required"
	} else if len(f.Subject) > maxSubjectLength {
		errs["subject"] = "Subject must be at most 200 characters"
	}

	if strings.TrimSpace(f.Message) == "" {
		errs["message"] = "Message is required"
	} else if len(f.Message) > maxMessageLength {
		errs["message"] = "Message is too long"
	}

	return errs
}

// profileForm holds profile edit form values.
type profileForm struct {
	Email     string
	FirstName string
	LastName  string
	Bio       string
}

func (f profileForm) validate() ValidationErrors {
	errs := ValidationErrors{}

	validateEmailField(errs, f.Email)

	if len(f.Bio) > maxBioLength {
		errs["bio"] = "Bio must be at most 2000 characters"
	}

	return errs
}

// passwordChangeForm holds password change form values.
type passwordChangeForm struct {
	Current string
	New     string
	Confirm string
}

func (f passwordChangeForm) validate() ValidationErrors {
	errs := ValidationErrors{}

	if f.Current == "" {
		errs["current_password"] = "Current password is required"
	}

	if f.New == "" {
		errs["new_password"] = "New password is required"
	} else if len(f.New) < minPasswordLength {
		errs["new_password"] = "Password must be at least 8 characters"
	}

	if f.Confirm != f.New {
		errs["confirm"] = "Passwords do not match"
	}

	return errs
}

func validateEmailField(errs ValidationErrors, email string) {
	if email == "" {
		errs["email"] = "Email is required"
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Invalid email address"
	}
}
