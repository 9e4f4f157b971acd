package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/littlelemon/internal/auth"
	"github.com/mmeshcher/littlelemon/internal/model"
)

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeRepo()
	tokens := &stubTokens{}
	svc := NewService(repo, tokens)
	ctx := context.Background()

	u, err := svc.RegisterUser(ctx, " mario ", "mario@littlelemon.com", "lemon-secret")
	require.NoError(t, err)
	assert.Equal(t, "mario", u.Username)
	assert.NotEqual(t, []byte("lemon-secret"), u.PasswordHash)

	_, err = svc.RegisterUser(ctx, "mario", "", "another-secret")
	assert.ErrorIs(t, err, model.ErrConflict)

	token, err := svc.Login(ctx, "mario", "lemon-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, u.ID, tokens.issuedFor)

	_, err = svc.Login(ctx, "mario", "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "luigi", "lemon-secret")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "mario", me.Username)

	_, err = svc.Me(ctx, 4242)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestRegisterUser_Validation(t *testing.T) {
	svc := NewService(newFakeRepo(), &stubTokens{})

	_, err := svc.RegisterUser(context.Background(), "", "", "lemon-secret")
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)

	_, err = svc.RegisterUser(context.Background(), "mario", "", "short")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)
}

func TestLogout_RevokesToken(t *testing.T) {
	tokens := &stubTokens{}
	svc := NewService(newFakeRepo(), tokens)

	require.NoError(t, svc.Logout(context.Background(), auth.Claims{UserID: 1, TokenID: "jti-1"}))
	assert.Equal(t, []string{"jti-1"}, tokens.revoked)
}

func TestEnsureAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &stubTokens{})
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := repo.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestGroupManagement(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &stubTokens{})
	ctx := context.Background()

	adminID, err := repo.CreateUser(ctx, model.User{Username: "admin", IsAdmin: true})
	require.NoError(t, err)
	manager := repo.addUser("manager", model.GroupManager)
	customer := repo.addUser("customer")
	repo.addUser("courier")

	t.Run("manager group is admin only", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddToGroup(ctx, manager, model.GroupManager, "customer"), model.ErrForbidden)
		_, err := svc.ListGroupMembers(ctx, customer, model.GroupManager)
		assert.ErrorIs(t, err, model.ErrForbidden)

		members, err := svc.ListGroupMembers(ctx, adminID, model.GroupManager)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "manager", members[0].Username)
	})

	t.Run("manager assigns delivery crew", func(t *testing.T) {
		require.NoError(t, svc.AddToGroup(ctx, manager, model.GroupDeliveryCrew, "courier"))
		require.NoError(t, svc.AddToGroup(ctx, manager, model.GroupDeliveryCrew, "courier"))

		members, err := svc.ListGroupMembers(ctx, manager, model.GroupDeliveryCrew)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "courier", members[0].Username)

		assert.ErrorIs(t, svc.AddToGroup(ctx, customer, model.GroupDeliveryCrew, "courier"), model.ErrForbidden)
	})

	t.Run("unknown username", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddToGroup(ctx, manager, model.GroupDeliveryCrew, "nobody"), model.ErrNotFound)

		var ve *model.ValidationError
		assert.ErrorAs(t, svc.AddToGroup(ctx, manager, model.GroupDeliveryCrew, " "), &ve)
	})

	t.Run("remove", func(t *testing.T) {
		courier, err := repo.GetUserByUsername(ctx, "courier")
		require.NoError(t, err)

		require.NoError(t, svc.RemoveFromGroup(ctx, manager, model.GroupDeliveryCrew, courier.ID))
		assert.ErrorIs(t, svc.RemoveFromGroup(ctx, manager, model.GroupDeliveryCrew, courier.ID), model.ErrNotFound)
		assert.ErrorIs(t, svc.RemoveFromGroup(ctx, manager, model.GroupDeliveryCrew, 4242), model.ErrNotFound)
	})
}

func TestListUsers(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &stubTokens{})
	ctx := context.Background()

	adminID, err := repo.CreateUser(ctx, model.User{Username: "admin", IsAdmin: true})
	require.NoError(t, err)
	manager := repo.addUser("manager", model.GroupManager)
	customer := repo.addUser("customer")

	all, err := svc.ListUsers(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"admin", "manager", "customer"}, []string{all[0].Username, all[1].Username, all[2].Username})

	for _, id := range []int64{manager, customer} {
		own, err := svc.ListUsers(ctx, id)
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, id, own[0].ID)
	}

	_, err = svc.ListUsers(ctx, 4242)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}
