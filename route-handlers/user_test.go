package routehandlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	created   []string
	update    models.ProfileUpdate
	createErr error
}

func (f *fakeAccounts) CreateUser(_ context.Context, email, password, name string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, email)
	return &models.User{ID: 1, Email: email, Name: name, PasswordHash: "$2a$hash", IsActive: true}, nil
}

func (f *fakeAccounts) VerifyCredentials(_ context.Context, email, password string) (string, error) {
	if email == "test@example.com" && password == "password123" {
		return "tok", nil
	}
	return "", common.ErrInvalidCredentials
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error) {
	f.update = upd
	u := *testUser
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	return &u, nil
}

func TestHandleCreateUser(t *testing.T) {
	accounts := &fakeAccounts{}
	h := NewUserHandler(accounts)

	rec := serve(h.HandleCreateUser, newRequest(http.MethodPost, "/api/user/create",
		`{"email":"test@example.com","password":"password123","name":"Test"}`))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "Test", body["name"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "PasswordHash")
}

func TestHandleCreateUser_Invalid(t *testing.T) {
	accounts := &fakeAccounts{}
	h := NewUserHandler(accounts)

	for name, payload := range map[string]string{
		"short password": `{"email":"test@example.com","password":"pw"}`,
		"missing email":  `{"password":"password123"}`,
		"bad email":      `{"email":"nope","password":"password123"}`,
		"malformed":      `{"email":`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h.HandleCreateUser, newRequest(http.MethodPost, "/api/user/create", payload))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, accounts.created)
}

func TestHandleCreateUser_Duplicate(t *testing.T) {
	h := NewUserHandler(&fakeAccounts{createErr: common.NewValidationError("email", "user with this email already exists.")})

	rec := serve(h.HandleCreateUser, newRequest(http.MethodPost, "/api/user/create",
		`{"email":"test@example.com","password":"password123"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeMap(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
}

func TestHandleCreateToken(t *testing.T) {
	h := NewUserHandler(&fakeAccounts{})

	rec := serve(h.HandleCreateToken, newRequest(http.MethodPost, "/api/user/token",
		`{"email":"test@example.com","password":"password123"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", decodeMap(t, rec)["token"])

	for _, payload := range []string{
		`{"email":"test@example.com","password":"wrong"}`,
		`{"email":"ghost@example.com","password":"password123"}`,
		`{"email":"test@example.com","password":""}`,
	} {
		rec := serve(h.HandleCreateToken, newRequest(http.MethodPost, "/api/user/token", payload))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotContains(t, decodeMap(t, rec), "token")
	}
}

func TestHandleGetMe(t *testing.T) {
	h := NewUserHandler(&fakeAccounts{})

	rec := serve(h.HandleGetMe, asUser(newRequest(http.MethodGet, "/api/user/me", ""), testUser))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "Test", body["name"])

	rec = serve(h.HandleGetMe, newRequest(http.MethodGet, "/api/user/me", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleUpdateMe(t *testing.T) {
	accounts := &fakeAccounts{}
	h := NewUserHandler(accounts)

	rec := serve(h.HandleUpdateMe, asUser(newRequest(http.MethodPatch, "/api/user/me",
		`{"name":"New Name","password":"newpassword123"}`), testUser))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "New Name", decodeMap(t, rec)["name"])
	require.NotNil(t, accounts.update.Password)
	assert.Equal(t, "newpassword123", *accounts.update.Password)
	assert.Nil(t, accounts.update.Email)

	rec = serve(h.HandleUpdateMe, asUser(newRequest(http.MethodPatch, "/api/user/me", `{"password":"abc"}`), testUser))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
