package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shelfy/internal/models"
)

type SortField struct {
	Column string
	Desc   bool
}

// ProductFilter holds optional criteria; zero values mean "not filtered".
type ProductFilter struct {
	Name        string
	Brands      []string
	PriceMin    *float64
	PriceMax    *float64
	Recommended *bool
	Sort        []SortField
}

func (f ProductFilter) apply(db *gorm.DB) *gorm.DB {
	if name := strings.TrimSpace(f.Name); name != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if len(f.Brands) == 1 {
		db = db.Where("brand = ?", f.Brands[0])
	} else if len(f.Brands) > 1 {
		db = db.Where("brand IN ?", f.Brands)
	}
	if f.PriceMin != nil {
		db = db.Where("default_price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		db = db.Where("default_price <= ?", *f.PriceMax)
	}
	if f.Recommended != nil {
		db = db.Where("is_recommended = ?", *f.Recommended)
	}
	return db
}

func (f ProductFilter) order(db *gorm.DB) *gorm.DB {
	for _, s := range f.Sort {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc})
	}
	return db.Order("id ASC")
}

func (r *GormRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) FindProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	q := f.order(f.apply(r.DB.WithContext(ctx).Model(&models.Product{})))
	if err := q.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SearchProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	items := []models.Product{}
	q := f.order(f.apply(r.DB.WithContext(ctx).Model(&models.Product{})))
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&products).Error
}

// UpdateProduct replaces every mutable field of the stored product.
func (r *GormRepo) UpdateProduct(ctx context.Context, id int64, upd models.Product) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&prod, id).Error; err != nil {
			return err
		}
		prod.Name = upd.Name
		prod.Brand = upd.Brand
		prod.Unit = upd.Unit
		prod.DefaultPrice = upd.DefaultPrice
		prod.ImageURL = upd.ImageURL
		prod.Active = upd.Active
		prod.Recommended = upd.Recommended
		return tx.Save(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) SetRecommended(ctx context.Context, id int64, recommended bool) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&prod, id).Error; err != nil {
			return err
		}
		prod.Recommended = recommended
		return tx.Save(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id int64) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) Brands(ctx context.Context) ([]string, error) {
	brands := []string{}
	err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	if err != nil {
		return nil, err
	}
	return brands, nil
}
