package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/logging"
	"github.com/coreybb/recipes/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byID      map[int64]*models.User
	nextID    int64
	createErr error
	lookupErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[int64]*models.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return common.ErrEmailTaken
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserStore) UpdateUser(_ context.Context, u *models.User) error {
	for id, existing := range f.byID {
		if id != u.ID && existing.Email == u.Email {
			return common.ErrEmailTaken
		}
	}
	if _, ok := f.byID[u.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

type fakeTokens struct{ err error }

func (f fakeTokens) Generate(userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("token-%d", userID), nil
}

func newUserService(store *fakeUserStore) *UserService {
	return NewUserService(store, fakeTokens{}, logging.Nop())
}

func TestCreateUser_NormalizesEmailAndHashes(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store)

	u, err := svc.CreateUser(context.Background(), "  Test@EXAMPLE.com ", "password123", "Test Name")
	require.NoError(t, err)

	assert.Equal(t, "test@example.com", u.Email)
	assert.Equal(t, "Test Name", u.Name)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.False(t, u.IsSuperuser)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"))
}

func TestCreateUser_EmailRequired(t *testing.T) {
	svc := newUserService(newFakeUserStore())

	_, err := svc.CreateUser(context.Background(), "   ", "password123", "")

	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
}

func TestCreateUser_ShortPassword(t *testing.T) {
	svc := newUserService(newFakeUserStore())

	_, err := svc.CreateUser(context.Background(), "a@b.com", "pw", "")

	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Ensure this field has at least 5 characters."}, ve.Fields["password"])
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc := newUserService(newFakeUserStore())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "a@b.com", "", "")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "A@B.com", "", "")

	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
}

func TestCreateUser_StoreFailure(t *testing.T) {
	store := newFakeUserStore()
	store.createErr = errors.New("db down")
	svc := newUserService(store)

	_, err := svc.CreateUser(context.Background(), "a@b.com", "", "")
	assert.ErrorContains(t, err, "db down")
}

func TestCreateUser_WithoutPasswordCannotLogin(t *testing.T) {
	svc := newUserService(newFakeUserStore())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "nopass@example.com", "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "!"))

	_, err = svc.VerifyCredentials(ctx, "nopass@example.com", "anything")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestCreateSuperuser(t *testing.T) {
	svc := newUserService(newFakeUserStore())

	u, err := svc.CreateSuperuser(context.Background(), "Admin@Example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)
}

func TestVerifyCredentials(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "test@example.com", "password123", "")
	require.NoError(t, err)

	token, err := svc.VerifyCredentials(ctx, "TEST@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	cases := map[string][2]string{
		"wrong password": {"test@example.com", "nope-nope"},
		"unknown email":  {"ghost@example.com", "password123"},
		"missing email":  {"", "password123"},
		"missing pass":   {"test@example.com", ""},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			tok, err := svc.VerifyCredentials(ctx, c[0], c[1])
			assert.ErrorIs(t, err, common.ErrInvalidCredentials)
			assert.Empty(t, tok)
		})
	}

	t.Run("inactive", func(t *testing.T) {
		store.byID[u.ID].IsActive = false
		_, err := svc.VerifyCredentials(ctx, "test@example.com", "password123")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})
}

func TestVerifyCredentials_LookupFailureIsNotMasked(t *testing.T) {
	store := newFakeUserStore()
	store.lookupErr = errors.New("db down")
	svc := newUserService(store)

	_, err := svc.VerifyCredentials(context.Background(), "a@b.com", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestVerifyCredentials_TokenFailure(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, fakeTokens{err: errors.New("no key")}, logging.Nop())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "a@b.com", "password123", "")
	require.NoError(t, err)

	_, err = svc.VerifyCredentials(ctx, "a@b.com", "password123")
	assert.ErrorContains(t, err, "no key")
}

func TestUpdateProfile(t *testing.T) {
	svc := newUserService(newFakeUserStore())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "a@b.com", "password123", "Old")
	require.NoError(t, err)

	name, pass := "New Name", "newpassword"
	updated, err := svc.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Name: &name, Password: &pass})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "a@b.com", updated.Email)

	_, err = svc.VerifyCredentials(ctx, "a@b.com", "newpassword")
	assert.NoError(t, err)
	_, err = svc.VerifyCredentials(ctx, "a@b.com", "password123")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestUpdateProfile_Email(t *testing.T) {
	svc := newUserService(newFakeUserStore())
	ctx := context.Background()

	a, err := svc.CreateUser(ctx, "a@b.com", "", "")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "taken@b.com", "", "")
	require.NoError(t, err)

	email := " Fresh@B.com"
	updated, err := svc.UpdateProfile(ctx, a.ID, models.ProfileUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "fresh@b.com", updated.Email)

	taken := "TAKEN@b.com"
	_, err = svc.UpdateProfile(ctx, a.ID, models.ProfileUpdate{Email: &taken})
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
}

func TestUpdateProfile_Invalid(t *testing.T) {
	svc := newUserService(newFakeUserStore())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "a@b.com", "", "")
	require.NoError(t, err)

	blank, short := "", "abc"
	_, err = svc.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Email: &blank, Password: &short})
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")

	_, err = svc.UpdateProfile(ctx, 99, models.ProfileUpdate{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetUser(t *testing.T) {
	svc := newUserService(newFakeUserStore())
	u, err := svc.CreateUser(context.Background(), "a@b.com", "", "")
	require.NoError(t, err)

	got, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
}

func TestNormalizeEmail(t *testing.T) {
	for in, want := range map[string]string{
		"test1@EXAMPLE.com":   "test1@example.com",
		"Test2@Example.com":   "test2@example.com",
		"TEST3@EXAMPLE.COM":   "test3@example.com",
		" test4@example.COM ": "test4@example.com",
	} {
		assert.Equal(t, want, NormalizeEmail(in))
	}
}
