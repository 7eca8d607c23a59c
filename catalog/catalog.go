// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/yearbook-vote/models"
)

var ErrCategoryNotFound = errors.New("category not found")

type Catalog struct {
	db *sql.DB
}

func New(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// ListCategories returns every category in display order
func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, icon_key
		FROM category
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.IconKey); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (c *Catalog) GetCategory(ctx context.Context, id string) (models.Category, error) {
	var cat models.Category
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, icon_key FROM category WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.IconKey)

	if err == sql.ErrNoRows {
		return models.Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// ListCandidates returns the candidates of one category in ballot order
func (c *Catalog) ListCandidates(ctx context.Context, categoryID string) ([]models.Candidate, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, class_label, photo_ref, category_id
		FROM candidate
		WHERE category_id = $1
		ORDER BY position, id
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListAllCandidates returns every candidate, grouped by category order and
// in ballot order within each category.
func (c *Catalog) ListAllCandidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT cd.id, cd.name, cd.class_label, cd.photo_ref, cd.category_id
		FROM candidate cd
		JOIN category ct ON ct.id = cd.category_id
		ORDER BY ct.position, ct.id, cd.position, cd.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// GetCategoryWithCandidates loads the ballot for one category
func (c *Catalog) GetCategoryWithCandidates(ctx context.Context, id string) (models.CategoryWithCandidates, error) {
	cat, err := c.GetCategory(ctx, id)
	if err != nil {
		return models.CategoryWithCandidates{}, err
	}

	candidates, err := c.ListCandidates(ctx, id)
	if err != nil {
		return models.CategoryWithCandidates{}, err
	}

	return models.CategoryWithCandidates{Category: cat, Candidates: candidates}, nil
}

func (c *Catalog) CountCategories(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

func scanCandidates(rows *sql.Rows) ([]models.Candidate, error) {
	candidates := []models.Candidate{}
	for rows.Next() {
		var cand models.Candidate
		if err := rows.Scan(&cand.ID, &cand.Name, &cand.ClassLabel, &cand.PhotoRef, &cand.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	return candidates, rows.Err()
}
