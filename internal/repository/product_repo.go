package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *ProductRepository) GetByID(id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) ListActive() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("status = ?", model.ProductStatusActive).
		Order("price ASC, id ASC").
		Find(&products).Error
	return products, err
}
