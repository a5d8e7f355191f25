package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/lock"
)

func addUser(t *testing.T, repos *testRepos, username string) *domain.User {
	t.Helper()
	u := domain.NewUser(username, username+"@example.com", "hash")
	require.NoError(t, repos.users.Create(context.Background(), u))
	return u
}

func addRecipe(t *testing.T, repos *testRepos, ownerID string) *domain.Recipe {
	t.Helper()
	r, err := domain.NewRecipe(ownerID, carbonaraFields())
	require.NoError(t, err)
	require.NoError(t, repos.recipes.Create(context.Background(), r))
	return r
}

func grantees(entry *domain.SharedRecipe) []string {
	ids := make([]string, 0, len(entry.SharedWith))
	for _, g := range entry.SharedWith {
		ids = append(ids, g.UserID)
	}
	return ids
}

func TestSharingService_ShareChecks(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	svc := NewSharingService(repos.Repositories, newTestLocker(t), nil, zerolog.Nop())

	alice := addUser(t, repos, "alice")
	bob := addUser(t, repos, "bob")
	recipe := addRecipe(t, repos, alice.ID)

	tests := []struct {
		name     string
		recipeID string
		caller   string
		target   string
		wantErr  error
	}{
		{name: "unknown recipe", recipeID: "missing", caller: alice.ID, target: "bob", wantErr: domain.ErrRecipeNotFound},
		{name: "caller does not own the recipe", recipeID: recipe.ID, caller: bob.ID, target: "alice", wantErr: domain.ErrForbidden},
		{name: "unknown target", recipeID: recipe.ID, caller: alice.ID, target: "nobody", wantErr: domain.ErrTargetUserNotFound},
		{name: "self share", recipeID: recipe.ID, caller: alice.ID, target: "alice", wantErr: domain.ErrSelfShare},
		{name: "non-owner checked before target", recipeID: recipe.ID, caller: bob.ID, target: "nobody", wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Share(ctx, tt.recipeID, tt.caller, tt.target)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	require.Zero(t, repos.sharing.count())
}

func TestSharingService_ShareAndUnshare(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	events := newCountingRecorder()
	svc := NewSharingService(repos.Repositories, newTestLocker(t), events, zerolog.Nop())

	alice := addUser(t, repos, "alice")
	bob := addUser(t, repos, "bob")
	carol := addUser(t, repos, "carol")
	recipe := addRecipe(t, repos, alice.ID)

	entry, err := svc.Share(ctx, recipe.ID, alice.ID, " bob ")
	require.NoError(t, err)
	require.Equal(t, []string{bob.ID}, grantees(entry))

	_, err = svc.Share(ctx, recipe.ID, alice.ID, "bob")
	require.ErrorIs(t, err, domain.ErrAlreadyShared)

	again, err := svc.Share(ctx, recipe.ID, alice.ID, "carol")
	require.NoError(t, err)
	require.Equal(t, entry.ID, again.ID, "one entry per recipe and owner")
	require.Equal(t, []string{bob.ID, carol.ID}, grantees(again))
	require.Equal(t, 1, repos.sharing.count())

	withBob, err := svc.ListSharedWithMe(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, withBob, 1)
	mine, err := svc.ListMyShares(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.ErrorIs(t, svc.Unshare(ctx, entry.ID, bob.ID, bob.ID), domain.ErrForbidden)
	require.ErrorIs(t, svc.Unshare(ctx, "missing", bob.ID, alice.ID), domain.ErrSharingNotFound)

	require.NoError(t, svc.Unshare(ctx, entry.ID, bob.ID, alice.ID))
	stored, err := repos.sharing.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, []string{carol.ID}, grantees(stored))

	require.NoError(t, svc.Unshare(ctx, entry.ID, "never-granted", alice.ID), "revoking an absent user succeeds")

	require.NoError(t, svc.Unshare(ctx, entry.ID, carol.ID, alice.ID))
	_, err = repos.sharing.GetByID(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrSharingNotFound, "empty entries are deleted")

	withBob, err = svc.ListSharedWithMe(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, withBob)

	require.Equal(t, 2, events.get(EventRecipeShared))
	require.Equal(t, 3, events.get(EventRecipeUnshared))
}

// staleSharingRepo hides existing entries from the first reads, as if a
// concurrent writer had inserted them after the read.
type staleSharingRepo struct {
	*memSharingRepo
	staleReads int
}

func (s *staleSharingRepo) GetByRecipeAndOwner(ctx context.Context, recipeID, ownerID string) (*domain.SharedRecipe, error) {
	if s.staleReads > 0 {
		s.staleReads--
		return nil, domain.ErrSharingNotFound
	}
	return s.memSharingRepo.GetByRecipeAndOwner(ctx, recipeID, ownerID)
}

func TestSharingService_ShareRecoversFromInsertRace(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	repos.Sharing = &staleSharingRepo{memSharingRepo: repos.sharing, staleReads: 1}
	svc := NewSharingService(repos.Repositories, newTestLocker(t), nil, zerolog.Nop())

	alice := addUser(t, repos, "alice")
	bob := addUser(t, repos, "bob")
	carol := addUser(t, repos, "carol")
	recipe := addRecipe(t, repos, alice.ID)

	existing := domain.NewSharedRecipe(recipe.ID, alice.ID)
	require.NoError(t, existing.Grant(bob.ID, time.Now()))
	require.NoError(t, repos.sharing.Create(ctx, existing))

	entry, err := svc.Share(ctx, recipe.ID, alice.ID, "carol")
	require.NoError(t, err)
	require.Equal(t, existing.ID, entry.ID)
	require.Equal(t, []string{bob.ID, carol.ID}, grantees(entry))
	require.Equal(t, 1, repos.sharing.count())
}

func TestSharingService_LockBusy(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	locker := lock.NewMemoryLocker()
	t.Cleanup(locker.Close)

	svc := NewSharingService(repos.Repositories, locker, nil, zerolog.Nop())
	svc.lockOpts = lock.Options{TTL: time.Minute, MaxRetries: 2, RetryDelay: time.Millisecond}

	alice := addUser(t, repos, "alice")
	addUser(t, repos, "bob")
	recipe := addRecipe(t, repos, alice.ID)

	_, held, err := locker.Acquire(ctx, lock.Keys.Sharing(recipe.ID, alice.ID), time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = svc.Share(ctx, recipe.ID, alice.ID, "bob")
	require.ErrorIs(t, err, ErrSharingBusy)
	require.Zero(t, repos.sharing.count())
}

func TestSharingService_ConcurrentShares(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	locker := lock.NewMemoryLocker()
	t.Cleanup(locker.Close)
	svc := NewSharingService(repos.Repositories, locker, nil, zerolog.Nop())

	alice := addUser(t, repos, "alice")
	recipe := addRecipe(t, repos, alice.ID)

	const n = 10
	for i := 0; i < n; i++ {
		addUser(t, repos, fmt.Sprintf("friend%02d", i))
	}

	t.Run("distinct targets all land in one entry", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.Share(ctx, recipe.ID, alice.ID, fmt.Sprintf("friend%02d", i))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		require.Equal(t, 1, repos.sharing.count())
		entry, err := repos.sharing.GetByRecipeAndOwner(ctx, recipe.ID, alice.ID)
		require.NoError(t, err)
		require.Len(t, entry.SharedWith, n)
	})

	t.Run("same target is granted once", func(t *testing.T) {
		other := addRecipe(t, repos, alice.ID)
		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded, duplicates := 0, 0
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Share(ctx, other.ID, alice.ID, "friend00")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case err == domain.ErrAlreadyShared:
					duplicates++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, succeeded)
		require.Equal(t, 4, duplicates)
		entry, err := repos.sharing.GetByRecipeAndOwner(ctx, other.ID, alice.ID)
		require.NoError(t, err)
		require.Len(t, entry.SharedWith, 1)
	})
}
