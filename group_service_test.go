package portal_test

import (
	"context"
	"testing"

	portal "github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateAndMembership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepoManager()
	svc := portal.NewGroupService(repo)

	admin := seedUser(repo, "admin@example.com", "password12", portal.RoleAdmin)
	member := seedUser(repo, "member@example.com", "password12", portal.RoleUser)

	group, err := svc.Create(ctx, admin, "marketing")
	require.NoError(t, err)

	t.Run("duplicate name is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, "Marketing")
		assert.ErrorIs(t, err, portal.ErrDuplicateName)
	})

	t.Run("regular user cannot create", func(t *testing.T) {
		_, err := svc.Create(ctx, member, "shadow")
		assert.ErrorIs(t, err, portal.ErrForbidden)
	})

	t.Run("membership feeds the access evaluator", func(t *testing.T) {
		require.NoError(t, svc.AddMember(ctx, admin, group.ID, member.ID))

		isMember, err := repo.Groups().IsMember(ctx, group.ID, member.ID)
		require.NoError(t, err)
		assert.True(t, isMember)

		// adding the same member twice is a no-op
		require.NoError(t, svc.AddMember(ctx, admin, group.ID, member.ID))

		groupIDs, err := repo.Groups().GroupIDsForUser(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, groupIDs, 1)
		assert.Equal(t, group.ID, groupIDs[0])

		require.NoError(t, svc.RemoveMember(ctx, admin, group.ID, member.ID))

		isMember, err = repo.Groups().IsMember(ctx, group.ID, member.ID)
		require.NoError(t, err)
		assert.False(t, isMember)
	})

	t.Run("membership of an unknown group fails", func(t *testing.T) {
		err := svc.AddMember(ctx, admin, member.ID, member.ID)
		assert.Error(t, err)
	})
}

func TestGroupService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepoManager()
	svc := portal.NewGroupService(repo)

	admin := seedUser(repo, "admin@example.com", "password12", portal.RoleAdmin)
	member := seedUser(repo, "member@example.com", "password12", portal.RoleUser)

	group, err := svc.Create(ctx, admin, "ephemeral")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, admin, group.ID, member.ID))

	require.NoError(t, svc.Delete(ctx, admin, group.ID))

	_, err = repo.Groups().GetByID(ctx, group.ID)
	assert.Error(t, err)

	groupIDs, err := repo.Groups().GroupIDsForUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, groupIDs)
}
