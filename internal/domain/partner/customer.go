package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Customer is deduplicated by normalized phone number per tenant.
// The core creates it on a first sale and refreshes its contact data on
// later sales from the same phone; it never deletes one.
type Customer struct {
	shared.TenantAggregateRoot
	Name    string
	Phone   string
	Email   string
	Address string
}

// Contact is the customer data carried by a sale
type Contact struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

var (
	phoneCharsRegex = regexp.MustCompile(`^[\d\s\-\(\)\+\.]+$`)
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// NormalizePhone reduces a phone number to its digits, keeping a leading +.
// Two spellings of the same number normalize to the same key.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", shared.NewValidationError("phone", "Customer phone is required")
	}
	if len(phone) > 50 || !phoneCharsRegex.MatchString(phone) {
		return "", shared.NewValidationError("phone", "Invalid phone number format")
	}

	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 8 || len(digits) > 15 {
		return "", shared.NewValidationError("phone", "Phone number must have between 8 and 15 digits")
	}
	return b.String(), nil
}

// NormalizeName collapses whitespace and title-cases a person's name
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return cases.Title(language.Und).String(name)
}

// Validate checks the contact and returns a copy with normalized fields
func (c Contact) Validate() (Contact, error) {
	phone, err := NormalizePhone(c.Phone)
	if err != nil {
		return Contact{}, err
	}
	name := NormalizeName(c.Name)
	if name == "" {
		return Contact{}, shared.NewValidationError("name", "Customer name is required")
	}
	if len(name) > 200 {
		return Contact{}, shared.NewValidationError("name", "Customer name cannot exceed 200 characters")
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email != "" && (len(email) > 200 || !emailRegex.MatchString(email)) {
		return Contact{}, shared.NewValidationError("email", "Invalid email format")
	}
	return Contact{
		Name:    name,
		Phone:   phone,
		Email:   email,
		Address: strings.TrimSpace(c.Address),
	}, nil
}

// NewCustomer creates a customer from sale contact data
func NewCustomer(tenantID uuid.UUID, contact Contact, now time.Time) (*Customer, error) {
	valid, err := contact.Validate()
	if err != nil {
		return nil, err
	}
	root := shared.NewTenantAggregateRoot(tenantID)
	root.CreatedAt = now
	root.UpdatedAt = now
	return &Customer{
		TenantAggregateRoot: root,
		Name:                valid.Name,
		Phone:               valid.Phone,
		Email:               valid.Email,
		Address:             valid.Address,
	}, nil
}

// UpdateContact refreshes name, email and address with the latest sale data.
// Empty email or address leave the stored value in place. The phone is the
// identity key and cannot change here.
// Returns true when anything changed.
func (c *Customer) UpdateContact(contact Contact, now time.Time) (bool, error) {
	valid, err := contact.Validate()
	if err != nil {
		return false, err
	}
	if valid.Phone != c.Phone {
		return false, shared.ErrCustomerConflict.
			WithDetail("customer_id", c.ID.String()).
			WithDetail("field", "phone")
	}

	changed := false
	if valid.Name != c.Name {
		c.Name = valid.Name
		changed = true
	}
	if valid.Email != "" && valid.Email != c.Email {
		c.Email = valid.Email
		changed = true
	}
	if valid.Address != "" && valid.Address != c.Address {
		c.Address = valid.Address
		changed = true
	}
	if changed {
		c.Touch(now)
	}
	return changed, nil
}
