package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Product represents a storefront product/SKU
// It is the aggregate root for catalog operations
type Product struct {
	shared.TenantAggregateRoot
	// Tenant-scoped SKU uniqueness is enforced by idx_product_tenant_sku
	// in the schema migrations
	SKU         string           `gorm:"type:varchar(50);not null;index"`
	Name        string           `gorm:"type:varchar(200);not null"`
	Slug        string           `gorm:"type:varchar(220);not null;index"`
	Description string           `gorm:"type:text"`
	BasePrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	SalePrice   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Stock       int              `gorm:"not null;default:0"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index"`
	Tags        string           `gorm:"type:text"`  // comma-separated tag set
	Images      string           `gorm:"type:jsonb"` // ordered image URL list as JSON array
	Published   bool             `gorm:"not null;default:false;index"`
	Featured    bool             `gorm:"not null;default:false"`
	OrderCount  int              `gorm:"not null;default:0"` // popularity proxy, maintained by order flow
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(tenantID uuid.UUID, sku, name string, basePrice decimal.Decimal) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if basePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Base price cannot be negative")
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 strings.ToUpper(sku),
		Name:                name,
		Slug:                Slugify(name),
		BasePrice:           basePrice,
		Images:              "[]",
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateName(name); err != nil {
		return err
	}

	p.Name = name
	p.Slug = Slugify(name)
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetSalePrice sets the discounted price
// A sale price above the base price is rejected
func (p *Product) SetSalePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}
	if price.GreaterThan(p.BasePrice) {
		return shared.NewDomainError("INVALID_PRICE", "Sale price cannot exceed base price")
	}

	p.SalePrice = &price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// ClearSalePrice removes the discounted price
func (p *Product) ClearSalePrice() {
	p.SalePrice = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// EffectivePrice returns the price a buyer pays
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.BasePrice
}

// SetStock sets the available stock level
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// InStock returns true if the product has available stock
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetTags replaces the product tag set
func (p *Product) SetTags(tags []string) {
	seen := make(map[string]bool, len(tags))
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	p.Tags = strings.Join(clean, ",")
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// TagList returns the tag set as a slice
func (p *Product) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	return strings.Split(p.Tags, ",")
}

// Publish makes the product visible in the storefront
func (p *Product) Publish() error {
	if p.Published {
		return shared.NewDomainError("ALREADY_PUBLISHED", "Product is already published")
	}
	p.Published = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Unpublish hides the product from the storefront
func (p *Product) Unpublish() error {
	if !p.Published {
		return shared.NewDomainError("NOT_PUBLISHED", "Product is not published")
	}
	p.Published = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetFeatured flags the product for featured placement
func (p *Product) SetFeatured(featured bool) {
	p.Featured = featured
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Slugify converts a name into a URL-safe slug
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// validateSKU validates the product SKU
func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "Product SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateName validates the product name
func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
