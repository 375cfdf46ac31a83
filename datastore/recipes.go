package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/dbx"
	"github.com/coreybb/recipes/models"
	"github.com/lib/pq"
)

// RecipeRepository handles database operations for recipes and their tag and
// ingredient associations. Every method is scoped to the owning user.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.link, r.image`

// ListRecipes returns the user's recipes, newest first. Non-empty filter
// lists match recipes associated with any of the given ids.
func (r *RecipeRepository) ListRecipes(ctx context.Context, userID int64, filter models.RecipeFilter) ([]models.Recipe, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = $1`)
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		args = append(args, pq.Array(filter.TagIDs))
		fmt.Fprintf(&sb, ` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($%d))`, len(args))
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, pq.Array(filter.IngredientIDs))
		fmt.Fprintf(&sb, ` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($%d))`, len(args))
	}
	sb.WriteString(` ORDER BY r.id DESC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}
	if len(recipes) == 0 {
		return recipes, nil
	}

	ids := make([]int64, len(recipes))
	for i, rec := range recipes {
		ids[i] = rec.ID
	}
	tagIDs, err := r.associationIDs(ctx, r.db, "recipe_tags", "tag_id", ids)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := r.associationIDs(ctx, r.db, "recipe_ingredients", "ingredient_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		recipes[i].Tags = orEmpty(tagIDs[recipes[i].ID])
		recipes[i].Ingredients = orEmpty(ingredientIDs[recipes[i].ID])
	}
	return recipes, nil
}

// GetRecipe returns one recipe with association ids.
func (r *RecipeRepository) GetRecipe(ctx context.Context, userID, recipeID int64) (*models.Recipe, error) {
	return r.getRecipe(ctx, r.db, userID, recipeID)
}

// GetRecipeDetail returns one recipe with its tags and ingredients expanded.
func (r *RecipeRepository) GetRecipeDetail(ctx context.Context, userID, recipeID int64) (*models.RecipeDetail, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`, recipeID, userID)
	rec, err := scanRecipe(row)
	if err != nil {
		return nil, err
	}

	detail := &models.RecipeDetail{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price,
		Link:        rec.Link,
		Image:       rec.Image,
		Tags:        []models.Tag{},
		Ingredients: []models.Ingredient{},
	}

	tagRows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name
		FROM tags t
		INNER JOIN recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = $1
		ORDER BY t.id
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var t models.Tag
		if err := tagRows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		detail.Tags = append(detail.Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe tags: %w", err)
	}

	ingRows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.user_id, i.name
		FROM ingredients i
		INNER JOIN recipe_ingredients ri ON ri.ingredient_id = i.id
		WHERE ri.recipe_id = $1
		ORDER BY i.id
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var i models.Ingredient
		if err := ingRows.Scan(&i.ID, &i.UserID, &i.Name); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		detail.Ingredients = append(detail.Ingredients, i)
	}
	if err := ingRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe ingredients: %w", err)
	}

	return detail, nil
}

// CreateRecipe inserts recipe and its associations in one transaction.
// Tag or ingredient ids the owner does not have yield a
// *common.ValidationError.
func (r *RecipeRepository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	recipe.Tags = dedupe(recipe.Tags)
	recipe.Ingredients = dedupe(recipe.Ingredients)

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := checkOwned(ctx, tx, recipe.UserID, recipe.Tags, recipe.Ingredients); err != nil {
			return err
		}

		query := `
			INSERT INTO recipes (user_id, title, time_minutes, price, link)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err := tx.QueryRowContext(ctx, query,
			recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Link,
		).Scan(&recipe.ID)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		return setAssociations(ctx, tx, recipe.ID, recipe.Tags, recipe.Ingredients, false)
	})
}

// UpdateRecipe overwrites the scalar fields of recipe and replaces its
// associations with recipe.Tags and recipe.Ingredients.
func (r *RecipeRepository) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	recipe.Tags = dedupe(recipe.Tags)
	recipe.Ingredients = dedupe(recipe.Ingredients)

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := checkOwned(ctx, tx, recipe.UserID, recipe.Tags, recipe.Ingredients); err != nil {
			return err
		}

		query := `
			UPDATE recipes
			SET title = $3, time_minutes = $4, price = $5, link = $6
			WHERE id = $1 AND user_id = $2
		`
		res, err := tx.ExecContext(ctx, query,
			recipe.ID, recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Link,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe %d: %w", recipe.ID, err)
		}
		if err := expectAffected(res, "recipe"); err != nil {
			return err
		}

		return setAssociations(ctx, tx, recipe.ID, recipe.Tags, recipe.Ingredients, true)
	})
}

func (r *RecipeRepository) DeleteRecipe(ctx context.Context, userID, recipeID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", recipeID, err)
	}
	return expectAffected(res, "recipe")
}

// SetRecipeImage records the storage key of the recipe's image.
func (r *RecipeRepository) SetRecipeImage(ctx context.Context, userID, recipeID int64, image string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET image = $3 WHERE id = $1 AND user_id = $2`,
		recipeID, userID, NewNullString(image))
	if err != nil {
		return fmt.Errorf("failed to set image of recipe %d: %w", recipeID, err)
	}
	return expectAffected(res, "recipe")
}

func (r *RecipeRepository) getRecipe(ctx context.Context, q dbx.DBTX, userID, recipeID int64) (*models.Recipe, error) {
	row := q.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`, recipeID, userID)
	rec, err := scanRecipe(row)
	if err != nil {
		return nil, err
	}

	ids := []int64{rec.ID}
	tagIDs, err := r.associationIDs(ctx, q, "recipe_tags", "tag_id", ids)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := r.associationIDs(ctx, q, "recipe_ingredients", "ingredient_id", ids)
	if err != nil {
		return nil, err
	}
	rec.Tags = orEmpty(tagIDs[rec.ID])
	rec.Ingredients = orEmpty(ingredientIDs[rec.ID])
	return rec, nil
}

// associationIDs maps each recipe id to the ids it references in joinTable.
func (r *RecipeRepository) associationIDs(ctx context.Context, q dbx.DBTX, joinTable, column string, recipeIDs []int64) (map[int64][]int64, error) {
	query := fmt.Sprintf(`SELECT recipe_id, %s FROM %s WHERE recipe_id = ANY($1) ORDER BY %s`, column, joinTable, column)
	rows, err := q.QueryContext(ctx, query, pq.Array(recipeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", joinTable, err)
	}
	defer rows.Close()

	out := make(map[int64][]int64, len(recipeIDs))
	for rows.Next() {
		var recipeID, id int64
		if err := rows.Scan(&recipeID, &id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", joinTable, err)
		}
		out[recipeID] = append(out[recipeID], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", joinTable, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var rec models.Recipe
	var image sql.NullString
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.TimeMinutes, &rec.Price, &rec.Link, &image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recipe %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}
	rec.Image = stringPtr(image)
	return &rec, nil
}

// checkOwned rejects tag or ingredient ids that do not belong to userID.
func checkOwned(ctx context.Context, q dbx.DBTX, userID int64, tagIDs, ingredientIDs []int64) error {
	ve := &common.ValidationError{}
	for _, c := range []struct {
		field, table string
		ids          []int64
	}{
		{"tags", "tags", tagIDs},
		{"ingredients", "ingredients", ingredientIDs},
	} {
		if len(c.ids) == 0 {
			continue
		}
		missing, err := missingIDs(ctx, q, c.table, userID, c.ids)
		if err != nil {
			return err
		}
		for _, id := range missing {
			ve.Add(c.field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func missingIDs(ctx context.Context, q dbx.DBTX, table string, userID int64, ids []int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND id = ANY($2)`, table)
	rows, err := q.QueryContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to check %s ownership: %w", table, err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s ids: %w", table, err)
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func setAssociations(ctx context.Context, tx dbx.DBTX, recipeID int64, tagIDs, ingredientIDs []int64, replace bool) error {
	for _, a := range []struct {
		table, column string
		ids           []int64
	}{
		{"recipe_tags", "tag_id", tagIDs},
		{"recipe_ingredients", "ingredient_id", ingredientIDs},
	} {
		if replace {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, a.table), recipeID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", a.table, err)
			}
		}
		if len(a.ids) == 0 {
			continue
		}
		query := fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) SELECT $1, unnest($2::bigint[])`, a.table, a.column)
		if _, err := tx.ExecContext(ctx, query, recipeID, pq.Array(a.ids)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", a.table, err)
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
