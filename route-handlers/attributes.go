package routehandlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreybb/recipes/webutil"
)

// AttributeStore is the per-user persistence behind the tag and ingredient
// endpoints. Both datastore attribute repositories satisfy it.
type AttributeStore[T any] interface {
	List(ctx context.Context, userID int64, assignedOnly bool) ([]T, error)
	Create(ctx context.Context, userID int64, name string) (*T, error)
	Get(ctx context.Context, userID, id int64) (*T, error)
	Rename(ctx context.Context, userID, id int64, name string) (*T, error)
	Delete(ctx context.Context, userID, id int64) error
}

// AttributeHandler serves the name-only recipe attributes (tags and
// ingredients), always scoped to the authenticated user.
type AttributeHandler[T any] struct {
	Store AttributeStore[T]
}

func NewAttributeHandler[T any](store AttributeStore[T]) *AttributeHandler[T] {
	return &AttributeHandler[T]{Store: store}
}

type attributeRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

type attributePatchRequest struct {
	Name *string `json:"name" validate:"omitnil,notblank,max=255"`
}

// HandleList returns the caller's attributes by name, descending. With
// assigned_only=1 only those used by at least one recipe are returned.
func (h *AttributeHandler[T]) HandleList(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	assignedOnly, err := parseFlag(r, "assigned_only")
	if err != nil {
		return err
	}

	items, err := h.Store.List(r.Context(), user.ID, assignedOnly)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, items)
	return nil
}

func (h *AttributeHandler[T]) HandleCreate(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req attributeRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	item, err := h.Store.Create(r.Context(), user.ID, strings.TrimSpace(req.Name))
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusCreated, item)
	return nil
}

func (h *AttributeHandler[T]) HandleGet(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	item, err := h.Store.Get(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, item)
	return nil
}

// HandleUpdate renames an attribute. PUT requires a name; PATCH without one
// leaves the attribute unchanged.
func (h *AttributeHandler[T]) HandleUpdate(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	var name *string
	if r.Method == http.MethodPatch {
		var req attributePatchRequest
		if err := webutil.DecodeAndValidate(r, &req); err != nil {
			return err
		}
		name = req.Name
	} else {
		var req attributeRequest
		if err := webutil.DecodeAndValidate(r, &req); err != nil {
			return err
		}
		name = &req.Name
	}

	var item *T
	if name == nil {
		item, err = h.Store.Get(r.Context(), user.ID, id)
	} else {
		item, err = h.Store.Rename(r.Context(), user.ID, id, strings.TrimSpace(*name))
	}
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, item)
	return nil
}

func (h *AttributeHandler[T]) HandleDelete(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	if err := h.Store.Delete(r.Context(), user.ID, id); err != nil {
		return err
	}
	webutil.RespondNoContent(w)
	return nil
}
