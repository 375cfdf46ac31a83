package routehandlers

import (
	"context"
	"net/http"

	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/webutil"
)

// UserAccounts is the account logic the user endpoints call.
// *services.UserService satisfies it.
type UserAccounts interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (string, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error)
}

type UserHandler struct {
	Accounts UserAccounts
}

func NewUserHandler(accounts UserAccounts) *UserHandler {
	return &UserHandler{Accounts: accounts}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"max=255"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type updateMeRequest struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5"`
	Name     *string `json:"name" validate:"omitnil,max=255"`
}

// HandleCreateUser registers a new account. The response never includes the
// password.
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) error {
	var req createUserRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	user, err := h.Accounts.CreateUser(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusCreated, user)
	return nil
}

// HandleCreateToken exchanges email and password for a session token.
func (h *UserHandler) HandleCreateToken(w http.ResponseWriter, r *http.Request) error {
	var req tokenRequest
	if err := webutil.DecodeJSON(r, &req); err != nil {
		return err
	}

	token, err := h.Accounts.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusOK, tokenResponse{Token: token})
	return nil
}

func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

// HandleUpdateMe applies a partial profile update for the caller.
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	updated, err := h.Accounts.UpdateProfile(r.Context(), user.ID, models.ProfileUpdate{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusOK, updated)
	return nil
}
