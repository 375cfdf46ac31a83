package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/dbx"
	"github.com/coreybb/recipes/models"
)

// AttributeRepository stores a simple user-owned, named entity that recipes
// reference through a join table. Tags and ingredients share it.
type AttributeRepository[T any] struct {
	db         dbx.DBTX
	table      string
	joinTable  string
	joinColumn string
	build      func(id, userID int64, name string) T
}

func NewTagRepository(db dbx.DBTX) *AttributeRepository[models.Tag] {
	return &AttributeRepository[models.Tag]{
		db:         db,
		table:      "tags",
		joinTable:  "recipe_tags",
		joinColumn: "tag_id",
		build: func(id, userID int64, name string) models.Tag {
			return models.Tag{ID: id, UserID: userID, Name: name}
		},
	}
}

func NewIngredientRepository(db dbx.DBTX) *AttributeRepository[models.Ingredient] {
	return &AttributeRepository[models.Ingredient]{
		db:         db,
		table:      "ingredients",
		joinTable:  "recipe_ingredients",
		joinColumn: "ingredient_id",
		build: func(id, userID int64, name string) models.Ingredient {
			return models.Ingredient{ID: id, UserID: userID, Name: name}
		},
	}
}

// List returns the user's rows ordered by name descending. With assignedOnly
// only rows referenced by at least one recipe are returned; the join is
// applied before the owner filter.
func (r *AttributeRepository[T]) List(ctx context.Context, userID int64, assignedOnly bool) ([]T, error) {
	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.name FROM %s a WHERE a.user_id = $1 ORDER BY a.name DESC`, r.table)
	if assignedOnly {
		query = fmt.Sprintf(`
			SELECT DISTINCT a.id, a.user_id, a.name
			FROM %s a
			INNER JOIN %s j ON j.%s = a.id
			WHERE a.user_id = $1
			ORDER BY a.name DESC
		`, r.table, r.joinTable, r.joinColumn)
	}

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var id, owner int64
		var name string
		if err := rows.Scan(&id, &owner, &name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		items = append(items, r.build(id, owner, name))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", r.table, err)
	}
	return items, nil
}

// Create inserts a row owned by userID.
func (r *AttributeRepository[T]) Create(ctx context.Context, userID int64, name string) (*T, error) {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id`, r.table)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}
	item := r.build(id, userID, name)
	return &item, nil
}

// Get returns the row only when it belongs to userID.
func (r *AttributeRepository[T]) Get(ctx context.Context, userID, id int64) (*T, error) {
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = $1 AND user_id = $2`, r.table)

	var owner int64
	var name string
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&id, &owner, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d %w", r.table, id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s %d: %w", r.table, id, err)
	}
	item := r.build(id, owner, name)
	return &item, nil
}

func (r *AttributeRepository[T]) Rename(ctx context.Context, userID, id int64, name string) (*T, error) {
	query := fmt.Sprintf(`UPDATE %s SET name = $3 WHERE id = $1 AND user_id = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, id, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %d: %w", r.table, id, err)
	}
	if err := expectAffected(res, r.table); err != nil {
		return nil, err
	}
	item := r.build(id, userID, name)
	return &item, nil
}

func (r *AttributeRepository[T]) Delete(ctx context.Context, userID, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", r.table, id, err)
	}
	return expectAffected(res, r.table)
}
