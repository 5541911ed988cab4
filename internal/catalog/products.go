package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matsalen/desafio-procion/internal/apperr"
	"github.com/matsalen/desafio-procion/internal/database"
	"github.com/matsalen/desafio-procion/internal/domain"
)

// ProductInput carries the mutable attributes of a product.
type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = in.Price.Round(2)

	if in.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	if !in.Price.IsPositive() {
		return apperr.Validation("price", "price must be greater than zero")
	}
	return nil
}

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, apperr.Persistence("list products", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *ProductService) load(tx *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := tx.Where("id = ?", id).First(&p).Error; database.IsNotFound(err) {
		return nil, apperr.NotFound("product", id)
	} else if err != nil {
		return nil, apperr.Persistence("load product", err)
	}
	return &p, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	p := domain.Product{Name: in.Name, Price: in.Price, Description: in.Description, Active: true}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, apperr.Persistence("create product", err)
	}
	return &p, nil
}

// Update replaces name, price and description. Existing order lines keep their captured price.
func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	p, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	p.Name, p.Price, p.Description = in.Name, in.Price, in.Description
	if err := db.Model(p).Select("name", "price", "description", "updated_at").Updates(p).Error; err != nil {
		return nil, apperr.Persistence("update product", err)
	}
	return p, nil
}

func (s *ProductService) ToggleActive(ctx context.Context, id int64) (*ToggleResult, error) {
	var res ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.load(tx, id)
		if err != nil {
			return err
		}
		res.Active = !p.Active
		if err := tx.Model(p).Update("active", res.Active).Error; err != nil {
			return apperr.Persistence("toggle product", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Message = toggleMessage("Product", res.Active)
	return &res, nil
}

// Purge removes a product that no order line references.
func (s *ProductService) Purge(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, id); err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&domain.OrderLine{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return apperr.Persistence("count product lines", err)
		}
		if refs > 0 {
			return apperr.Conflict("product_in_use", "product is referenced by orders and cannot be purged")
		}
		err := tx.Delete(&domain.Product{}, id).Error
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("product_in_use", "product is referenced by orders and cannot be purged")
		} else if err != nil {
			return apperr.Persistence("purge product", err)
		}
		return nil
	})
}
