package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/partner"
	domain "github.com/retailcore/backend/internal/domain/shared"
)

// UpsertCustomer finds the tenant's customer by normalized phone and refreshes
// its contact data, or creates it on first sight. It must run inside the
// caller's unit of work so the customer commits with the sale.
func UpsertCustomer(ctx context.Context, customers partner.CustomerRepository, tenantID uuid.UUID, contact partner.Contact, now time.Time) (*partner.Customer, error) {
	valid, err := contact.Validate()
	if err != nil {
		return nil, err
	}

	existing, err := customers.FindByPhone(ctx, tenantID, valid.Phone)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		customer, err := partner.NewCustomer(tenantID, valid, now)
		if err != nil {
			return nil, err
		}
		if err := customers.Save(ctx, customer); err != nil {
			return nil, err
		}
		return customer, nil
	}

	changed, err := existing.UpdateContact(valid, now)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := customers.SaveWithLock(ctx, existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// ContactInput is customer contact data as received from a client
type ContactInput struct {
	Name    string `json:"name" binding:"required,max=200"`
	Phone   string `json:"phone" binding:"required,phone"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// Contact converts the input to the domain contact
func (c ContactInput) Contact() partner.Contact {
	return partner.Contact{Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address}
}
