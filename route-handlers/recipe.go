package routehandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/webutil"
)

// RecipeStore is the per-user recipe persistence.
// *datastore.RecipeRepository satisfies it.
type RecipeStore interface {
	ListRecipes(ctx context.Context, userID int64, filter models.RecipeFilter) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, userID, recipeID int64) (*models.Recipe, error)
	GetRecipeDetail(ctx context.Context, userID, recipeID int64) (*models.RecipeDetail, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	DeleteRecipe(ctx context.Context, userID, recipeID int64) error
}

type RecipeHandler struct {
	Repo RecipeStore
}

func NewRecipeHandler(repo RecipeStore) *RecipeHandler {
	return &RecipeHandler{Repo: repo}
}

// recipeRequest is shared by create, PUT and PATCH. Absent fields decode to
// nil so partial updates can tell them apart from zero values.
type recipeRequest struct {
	Title       *string      `json:"title" validate:"omitnil,notblank,max=255"`
	TimeMinutes *int         `json:"time_minutes" validate:"omitnil,gte=0"`
	Price       *json.Number `json:"price"`
	Link        *string      `json:"link" validate:"omitnil,max=255"`
	Tags        *[]int64     `json:"tags"`
	Ingredients *[]int64     `json:"ingredients"`
}

// priceRe accepts NUMERIC(5,2): up to three integer and two fraction digits.
var priceRe = regexp.MustCompile(`^(\d{1,3})(?:\.(\d{1,2}))?$`)

// normalizePrice returns the canonical two-decimal form of n, e.g. "5.5" -> "5.50".
func normalizePrice(n json.Number) (string, bool) {
	m := priceRe.FindStringSubmatch(strings.TrimSpace(n.String()))
	if m == nil {
		return "", false
	}
	whole := strings.TrimLeft(m[1], "0")
	if whole == "" {
		whole = "0"
	}
	return whole + "." + (m[2] + "00")[:2], true
}

// apply copies the present fields of req onto rec. With requireAll the
// title, time_minutes and price fields must all be present.
func (req *recipeRequest) apply(rec *models.Recipe, requireAll bool) error {
	verr := &common.ValidationError{}
	if requireAll {
		if req.Title == nil {
			verr.Add("title", "This field is required.")
		}
		if req.TimeMinutes == nil {
			verr.Add("time_minutes", "This field is required.")
		}
		if req.Price == nil {
			verr.Add("price", "This field is required.")
		}
	}

	if req.Price != nil {
		price, ok := normalizePrice(*req.Price)
		if !ok {
			verr.Add("price", "Ensure that there are no more than 3 digits before the decimal point and no more than 2 decimal places.")
		} else {
			rec.Price = price
		}
	}
	if verr.HasErrors() {
		return verr
	}

	if req.Title != nil {
		rec.Title = strings.TrimSpace(*req.Title)
	}
	if req.TimeMinutes != nil {
		rec.TimeMinutes = *req.TimeMinutes
	}
	if req.Link != nil {
		rec.Link = strings.TrimSpace(*req.Link)
	}
	if req.Tags != nil {
		rec.Tags = *req.Tags
	}
	if req.Ingredients != nil {
		rec.Ingredients = *req.Ingredients
	}
	return nil
}

// HandleListRecipes returns the caller's recipes, newest first. The tags and
// ingredients query parameters take comma-separated ids; a recipe matches a
// parameter when it has any of the listed ids.
func (h *RecipeHandler) HandleListRecipes(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	q := r.URL.Query()
	tagIDs, err := parseIDList("tags", q.Get("tags"))
	if err != nil {
		return err
	}
	ingredientIDs, err := parseIDList("ingredients", q.Get("ingredients"))
	if err != nil {
		return err
	}

	recipes, err := h.Repo.ListRecipes(r.Context(), user.ID, models.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, recipes)
	return nil
}

func (h *RecipeHandler) HandleCreateRecipe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req recipeRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	// The owner always comes from the token, never the payload.
	rec := models.Recipe{UserID: user.ID}
	if err := req.apply(&rec, true); err != nil {
		return err
	}

	if err := h.Repo.CreateRecipe(r.Context(), &rec); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusCreated, rec)
	return nil
}

// HandleGetRecipe returns a recipe with its tags and ingredients expanded.
func (h *RecipeHandler) HandleGetRecipe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	detail, err := h.Repo.GetRecipeDetail(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, detail)
	return nil
}

// HandleUpdateRecipe serves PUT and PATCH. PUT requires title, time_minutes
// and price; fields left out of either are kept.
func (h *RecipeHandler) HandleUpdateRecipe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	var req recipeRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	rec, err := h.Repo.GetRecipe(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := req.apply(rec, r.Method == http.MethodPut); err != nil {
		return err
	}

	if err := h.Repo.UpdateRecipe(r.Context(), rec); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, rec)
	return nil
}

func (h *RecipeHandler) HandleDeleteRecipe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteRecipe(r.Context(), user.ID, id); err != nil {
		return err
	}
	webutil.RespondNoContent(w)
	return nil
}
