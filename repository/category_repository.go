package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// CategoryRepository reads complaint categories
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.db.GetContext(ctx, &c,
		`SELECT category_id, name, is_active FROM categories WHERE category_id = ?`, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

func (r *CategoryRepository) GetSubCategory(ctx context.Context, id int64) (*models.SubCategory, error) {
	var s models.SubCategory
	err := r.db.GetContext(ctx, &s,
		`SELECT sub_category_id, category_id, name, is_active FROM sub_categories WHERE sub_category_id = ?`, id)
	if err != nil {
		return nil, notFound(err, "sub-category", id)
	}
	return &s, nil
}
