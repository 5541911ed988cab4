package catalog

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/matsalen/desafio-procion/internal/apperr"
	"github.com/matsalen/desafio-procion/internal/database"
	"github.com/matsalen/desafio-procion/internal/domain"
)

var validate = validator.New()

// CustomerInput carries the mutable attributes of a customer.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

func (in *CustomerInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	if in.Email == "" {
		return apperr.Validation("email", "email is required")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return apperr.Validation("email", "email is not a valid address")
	}
	return nil
}

// ToggleResult is the outcome of ToggleActive.
type ToggleResult struct {
	Active  bool   `json:"active"`
	Message string `json:"message"`
}

// CustomerService implements the customer catalog on top of gorm.
type CustomerService struct {
	db *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// List returns every customer, inactive ones included, in insertion order.
func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&customers).Error; err != nil {
		return nil, apperr.Persistence("list customers", err)
	}
	return customers, nil
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *CustomerService) load(tx *gorm.DB, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := tx.Where("id = ?", id).First(&c).Error; database.IsNotFound(err) {
		return nil, apperr.NotFound("customer", id)
	} else if err != nil {
		return nil, apperr.Persistence("load customer", err)
	}
	return &c, nil
}

// Create inserts an active customer. A taken email is a conflict and nothing is written.
func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if err := s.ensureEmailFree(db, in.Email, 0); err != nil {
		return nil, err
	}

	c := domain.Customer{Name: in.Name, Email: in.Email, Phone: in.Phone, Active: true}
	if err := db.Create(&c).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, emailTaken()
		}
		return nil, apperr.Persistence("create customer", err)
	}
	return &c, nil
}

// Update replaces name, email and phone. The active flag is left alone.
func (s *CustomerService) Update(ctx context.Context, id int64, in CustomerInput) (*domain.Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	c, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	if in.Email != c.Email {
		if err := s.ensureEmailFree(db, in.Email, id); err != nil {
			return nil, err
		}
	}

	c.Name, c.Email, c.Phone = in.Name, in.Email, in.Phone
	err = db.Model(c).Select("name", "email", "phone", "updated_at").Updates(c).Error
	if database.IsDuplicateKey(err) {
		return nil, emailTaken()
	} else if err != nil {
		return nil, apperr.Persistence("update customer", err)
	}
	return c, nil
}

// ToggleActive flips the active flag. Orders of the customer are untouched.
func (s *CustomerService) ToggleActive(ctx context.Context, id int64) (*ToggleResult, error) {
	var res ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.load(tx, id)
		if err != nil {
			return err
		}
		res.Active = !c.Active
		if err := tx.Model(c).Update("active", res.Active).Error; err != nil {
			return apperr.Persistence("toggle customer", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Message = toggleMessage("Customer", res.Active)
	return &res, nil
}

// Purge removes a customer for good. Customers with orders cannot be purged.
func (s *CustomerService) Purge(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, id); err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&domain.Order{}).Where("customer_id = ?", id).Count(&refs).Error; err != nil {
			return apperr.Persistence("count customer orders", err)
		}
		if refs > 0 {
			return apperr.Conflict("customer_in_use", "customer has orders and cannot be purged")
		}
		err := tx.Delete(&domain.Customer{}, id).Error
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("customer_in_use", "customer has orders and cannot be purged")
		} else if err != nil {
			return apperr.Persistence("purge customer", err)
		}
		return nil
	})
}

func (s *CustomerService) ensureEmailFree(db *gorm.DB, email string, exceptID int64) error {
	var exists int64
	q := db.Model(&domain.Customer{}).Where("email = ?", email)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&exists).Error; err != nil {
		return apperr.Persistence("check email", err)
	}
	if exists > 0 {
		return emailTaken()
	}
	return nil
}

func emailTaken() error {
	return apperr.Conflict("email_taken", "email already registered")
}

func toggleMessage(entity string, active bool) string {
	if active {
		return entity + " reactivated"
	}
	return entity + " deactivated"
}
