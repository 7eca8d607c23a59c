// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/yearbook-vote/catalog"
	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/middleware"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	cfg     cliparse.Config
}

func NewCatalogHandler(db *sql.DB, cfg cliparse.Config) *CatalogHandler {
	return &CatalogHandler{catalog: catalog.New(db), cfg: cfg}
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, categories)
}

// GetCategory handles GET /categories/{id}
// Returns the category and its ballot, never vote counts.
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	if categoryID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category id is required")
		return
	}

	ballot, err := h.catalog.GetCategoryWithCandidates(r.Context(), categoryID)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		slog.Error("failed to load category", "error", err, "category_id", categoryID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}
