// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/danielhkuo/yearbook-vote/models"
)

// SeedFile is the YAML layout of a seed file:
//
//	reveal-at: "2026-06-12T18:00"
//	categories:
//	  - id: best-smile
//	    name: Best Smile
//	    icon: Smile
//	    candidates:
//	      - id: c-ana
//	        name: Ana Lopez
//	        class: 12B
//	        photo: ana.jpg
//	users:
//	  - username: ana
//	    display-name: Ana Lopez
//	    password: changeme
//	    role: student
type SeedFile struct {
	RevealAt   string         `yaml:"reveal-at"`
	Categories []SeedCategory `yaml:"categories"`
	Users      []SeedUser     `yaml:"users"`
}

type SeedCategory struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Icon       string          `yaml:"icon"`
	Candidates []SeedCandidate `yaml:"candidates"`
}

type SeedCandidate struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
	Photo string `yaml:"photo"`
}

type SeedUser struct {
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display-name"`
	Password    string `yaml:"password"`
	Role        string `yaml:"role"`
}

func (c *SeedCategory) UnmarshalYAML(unmarshal func(any) error) error {
	type raw SeedCategory
	var r raw
	if err := unmarshal(&r); err != nil {
		return err
	}
	if r.ID == "" || r.Name == "" {
		return &yaml.TypeError{Errors: []string{"category requires id and name"}}
	}
	for _, cand := range r.Candidates {
		if cand.ID == "" || cand.Name == "" {
			return &yaml.TypeError{Errors: []string{fmt.Sprintf("candidate in category %q requires id and name", r.ID)}}
		}
	}
	*c = SeedCategory(r)
	return nil
}

func (u *SeedUser) UnmarshalYAML(unmarshal func(any) error) error {
	type raw SeedUser
	var r raw
	if err := unmarshal(&r); err != nil {
		return err
	}
	if r.Username == "" || r.Password == "" {
		return &yaml.TypeError{Errors: []string{"user requires username and password"}}
	}
	switch r.Role {
	case "":
		r.Role = models.RoleStudent
	case models.RoleStudent, models.RoleAdmin:
	default:
		return &yaml.TypeError{Errors: []string{fmt.Sprintf("user %q has unknown role %q", r.Username, r.Role)}}
	}
	if r.DisplayName == "" {
		r.DisplayName = r.Username
	}
	*u = SeedUser(r)
	return nil
}

// LoadSeedFile reads and validates a YAML seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	seed := &SeedFile{}
	if err := yaml.NewDecoder(file).Decode(seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return seed, nil
}

// SeedResult counts the rows a Seed call inserted
type SeedResult struct {
	Categories int
	Candidates int
}

// Seed inserts the seed's categories and candidates, keeping file order as
// display order. Rows whose id already exists are skipped.
func (c *Catalog) Seed(ctx context.Context, seed *SeedFile) (SeedResult, error) {
	var result SeedResult

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for i, cat := range seed.Categories {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO category (id, name, icon_key, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, cat.ID, cat.Name, cat.Icon, i)
		if err != nil {
			return result, fmt.Errorf("failed to insert category %s: %w", cat.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Categories++
		}

		for j, cand := range cat.Candidates {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO candidate (id, category_id, name, class_label, photo_ref, position)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT DO NOTHING
			`, cand.ID, cat.ID, cand.Name, cand.Class, cand.Photo, j)
			if err != nil {
				return result, fmt.Errorf("failed to insert candidate %s: %w", cand.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				result.Candidates++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit seed: %w", err)
	}
	return result, nil
}
