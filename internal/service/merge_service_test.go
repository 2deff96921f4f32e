package service

import (
	"context"
	"testing"

	"split-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCreatesEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.mergeService.Merge(ctx, "m-dup", "m-keep", 1)
	require.NoError(t, err)
	assert.False(t, result.AlreadyExisted)
	require.NotNil(t, result.Edge)
	assert.Equal(t, "m-dup", result.Edge.AliasID)
	assert.Equal(t, "m-keep", result.Edge.CanonicalID)
	assert.Equal(t, uint(1), result.Edge.CreatedByID)
}

func TestMergeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.mergeService.Merge(ctx, "m-dup", "m-keep", 1)
	require.NoError(t, err)
	assert.False(t, first.AlreadyExisted)

	second, err := env.mergeService.Merge(ctx, "m-dup", "m-keep", 1)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExisted)

	edges, err := env.aliases.All(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestMergeSelfIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.mergeService.Merge(ctx, "m-a", "m-a", 1)
	require.NoError(t, err)
	assert.True(t, result.AlreadyExisted)

	edges, err := env.aliases.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestMergeRetargetsOntoTrueCanonical(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A -> B, then merging C into A must land C directly on B's
	// canonical, not on the alias it was asked about.
	_, err := env.mergeService.Merge(ctx, "m-a", "m-b", 1)
	require.NoError(t, err)

	result, err := env.mergeService.Merge(ctx, "m-c", "m-a", 1)
	require.NoError(t, err)
	assert.Equal(t, "m-b", result.Edge.CanonicalID)
}

func TestMergeTransitiveEquivalentIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A -> B and B -> C: a fresh merge of A toward B (or C) resolves to
	// the same canonical and is a silent no-op.
	_, err := env.mergeService.Merge(ctx, "m-a", "m-b", 1)
	require.NoError(t, err)
	_, err = env.mergeService.Merge(ctx, "m-b", "m-c", 1)
	require.NoError(t, err)

	result, err := env.mergeService.Merge(ctx, "m-a", "m-b", 1)
	require.NoError(t, err)
	assert.True(t, result.AlreadyExisted)

	result, err = env.mergeService.Merge(ctx, "m-a", "m-c", 1)
	require.NoError(t, err)
	assert.True(t, result.AlreadyExisted)
}

func TestMergeConflictRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.mergeService.Merge(ctx, "m-a", "m-b", 1)
	require.NoError(t, err)

	_, err = env.mergeService.Merge(ctx, "m-a", "m-c", 1)
	assert.ErrorIs(t, err, ErrMergeConflict)

	// The original edge survives untouched.
	edge, err := env.aliases.FindByAlias(ctx, "m-a")
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, "m-b", edge.CanonicalID)
}

func TestMergeCycleRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Malformed store: Y and Z alias each other. Merging Z under Y would
	// extend the cycle; the call must reject, not truncate.
	env.rawEdge(t, "m-y", "m-z")
	env.rawEdge(t, "m-z", "m-y")

	_, err := env.mergeService.Merge(ctx, "m-z", "m-y", 1)
	assert.ErrorIs(t, err, ErrMergeCycle)

	edges, err := env.aliases.All(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestMergeNeverLoopsOnMalformedData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.rawEdge(t, "m-x", "m-y")
	env.rawEdge(t, "m-y", "m-x")

	// Unrelated merges still work next to a broken cycle.
	result, err := env.mergeService.Merge(ctx, "m-a", "m-b", 1)
	require.NoError(t, err)
	assert.False(t, result.AlreadyExisted)
}

func TestMergeFriendPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice", "alice@example.com")

	keep := env.placeholder(t, owner.ID, "Bob")
	dup := env.placeholder(t, owner.ID, "Bobby")

	result, err := env.mergeService.MergeFriendPair(ctx, keep.ID, dup.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Edge)
	assert.Equal(t, dup.ID, result.Edge.AliasID)
	assert.Equal(t, keep.ID, result.Edge.CanonicalID)

	canonical, err := env.resolveService.Canonical(ctx, dup.ID)
	require.NoError(t, err)
	assert.Equal(t, keep.ID, canonical)
}

func TestMergeFriendPairRejectsLinkedSide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice", "alice@example.com")
	other := env.register(t, "bob", "bob@example.com")

	linked := models.Member{ID: "m-linked", OwnerID: owner.ID, Name: "Bob", UserID: &other.ID}
	require.NoError(t, env.members.Create(ctx, &linked))
	unlinked := env.placeholder(t, owner.ID, "Bobby")

	_, err := env.mergeService.MergeFriendPair(ctx, linked.ID, unlinked.ID, owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	_, err = env.mergeService.MergeFriendPair(ctx, unlinked.ID, linked.ID, owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	edges, err := env.aliases.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestMergeFriendPairRejectsForeignAddressBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice", "alice@example.com")
	intruder := env.register(t, "mallory", "mallory@example.com")

	keep := env.placeholder(t, owner.ID, "Bob")
	dup := env.placeholder(t, owner.ID, "Bobby")

	// Another account must not be able to write alias edges over a
	// book it does not own.
	_, err := env.mergeService.MergeFriendPair(ctx, keep.ID, dup.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrMemberWrongOwner)

	edges, err := env.aliases.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)

	// The owner's own merge still goes through.
	_, err = env.mergeService.MergeFriendPair(ctx, keep.ID, dup.ID, owner.ID)
	assert.NoError(t, err)
}

func TestMergeFriendPairUnknownMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice", "alice@example.com")

	keep := env.placeholder(t, owner.ID, "Bob")

	_, err := env.mergeService.MergeFriendPair(ctx, keep.ID, "m-missing", owner.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestNoCycleInvariantAfterManyMerges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ids := []string{"m-1", "m-2", "m-3", "m-4", "m-5"}
	_, err := env.mergeService.Merge(ctx, "m-1", "m-2", 1)
	require.NoError(t, err)
	_, err = env.mergeService.Merge(ctx, "m-2", "m-3", 1)
	require.NoError(t, err)
	_, err = env.mergeService.Merge(ctx, "m-4", "m-5", 1)
	require.NoError(t, err)
	_, err = env.mergeService.Merge(ctx, "m-5", "m-3", 1)
	require.NoError(t, err)

	// Every identity resolves in at most len(ids) hops to one canonical.
	for _, id := range ids {
		canonical, err := env.resolveService.Canonical(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "m-3", canonical, "resolving %s", id)
	}
}
