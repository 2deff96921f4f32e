package service

import (
	"context"
	"testing"

	"split-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) directGroup(t *testing.T, ownerID uint, a, b string) *models.Group {
	t.Helper()
	group, err := e.groupService.CreateGroup(context.Background(), ownerID, &models.CreateGroupRequest{
		Name:      "Direct",
		Direct:    true,
		MemberIDs: []string{a, b},
	})
	require.NoError(t, err)
	return group
}

func TestDirectExpenseRequiresFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")
	y := env.register(t, "yolanda", "y@example.com")

	selfX := env.selfMember(t, x)
	memberY, err := env.relationshipService.ensureMemberFor(ctx, env.members, x.ID, y)
	require.NoError(t, err)
	group := env.directGroup(t, x.ID, selfX.ID, memberY.ID)

	req := &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Dinner",
		Amount:         decimal.RequireFromString("40.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, memberY.ID},
	}

	// Only group_peer so far: the gate refuses.
	_, err = env.expenseService.CreateExpense(ctx, x.ID, req)
	assert.ErrorIs(t, err, ErrNotFriends)

	// The handshake unlocks the same request.
	env.handshake(t, x, y)
	expense, err := env.expenseService.CreateExpense(ctx, x.ID, req)
	require.NoError(t, err)
	require.Len(t, expense.Splits, 2)
	assert.True(t, expense.Splits[0].Amount.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, expense.Splits[1].Amount.Equal(decimal.RequireFromString("20.00")))
}

func TestNonDirectGroupBypassesGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	walkIn := env.placeholder(t, x.ID, "Walk-in")
	group, err := env.groupService.CreateGroup(ctx, x.ID, &models.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{selfX.ID, walkIn.ID},
	})
	require.NoError(t, err)

	// walkIn is a mere group_peer, which is enough outside a direct group.
	expense, err := env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Groceries",
		Amount:         decimal.RequireFromString("30.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, walkIn.ID},
	})
	require.NoError(t, err)
	assert.Len(t, expense.Splits, 2)
}

func TestAuthorizeDirectExpenseBypassForNonDirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	walkIn := env.placeholder(t, x.ID, "Walk-in")
	group, err := env.groupService.CreateGroup(ctx, x.ID, &models.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{selfX.ID, walkIn.ID},
	})
	require.NoError(t, err)

	err = env.expenseService.AuthorizeDirectExpense(ctx, x.ID, group.ID, []string{selfX.ID, walkIn.ID})
	assert.NoError(t, err)
}

func TestDirectExpenseJudgesCanonicalIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	keep := env.placeholder(t, x.ID, "Bob")
	dup := env.placeholder(t, x.ID, "Bobby")

	// Legacy friend row for the surviving identity; no row for the dup.
	require.NoError(t, env.relationships.Create(ctx, &models.Relationship{
		OwnerID: x.ID, MemberID: keep.ID, Status: "",
	}))

	_, err := env.mergeService.MergeFriendPair(ctx, keep.ID, dup.ID, x.ID)
	require.NoError(t, err)

	// The group still names the merged duplicate; the gate judges Bob.
	group := env.directGroup(t, x.ID, selfX.ID, dup.ID)

	expense, err := env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Cab",
		Amount:         decimal.RequireFromString("15.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, dup.ID},
	})
	require.NoError(t, err)
	assert.Len(t, expense.Splits, 2)
}

func TestDirectExpenseFallsBackToEquivalenceSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	keep := env.placeholder(t, x.ID, "Bob")
	dup := env.placeholder(t, x.ID, "Bobby")

	// The relationship row was written against the pre-merge duplicate,
	// not the canonical. The lookup must still find it.
	require.NoError(t, env.relationships.Create(ctx, &models.Relationship{
		OwnerID: x.ID, MemberID: dup.ID, Status: models.StatusFriend,
	}))
	_, err := env.mergeService.MergeFriendPair(ctx, keep.ID, dup.ID, x.ID)
	require.NoError(t, err)

	// The group lists the duplicate, the expense names the canonical;
	// both resolve to the same identity.
	group := env.directGroup(t, x.ID, selfX.ID, dup.ID)

	_, err = env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Cab",
		Amount:         decimal.RequireFromString("15.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, keep.ID},
	})
	assert.NoError(t, err)
}

func TestDirectExpenseParticipantCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")
	y := env.register(t, "yolanda", "y@example.com")
	env.handshake(t, x, y)

	selfX := env.selfMember(t, x)
	memberY := env.memberFor(t, x.ID, y)
	group := env.directGroup(t, x.ID, selfX.ID, memberY.ID)

	_, err := env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Solo",
		Amount:         decimal.RequireFromString("10.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID},
	})
	assert.ErrorIs(t, err, ErrDirectParticipants)
}

func TestExpenseRejectsNonMemberParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	walkIn := env.placeholder(t, x.ID, "Walk-in")
	outsider := env.placeholder(t, x.ID, "Outsider")
	group, err := env.groupService.CreateGroup(ctx, x.ID, &models.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{selfX.ID, walkIn.ID},
	})
	require.NoError(t, err)

	_, err = env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Groceries",
		Amount:         decimal.RequireFromString("30.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, outsider.ID},
	})
	assert.ErrorIs(t, err, ErrExpenseParticipant)
}

func TestExpenseRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	_, err := env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        "g-any",
		Description:    "Nothing",
		Amount:         decimal.Zero,
		PaidByID:       "m-any",
		ParticipantIDs: []string{"m-any"},
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestExpenseRequiresGroupOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")
	y := env.register(t, "yolanda", "y@example.com")

	selfX := env.selfMember(t, x)
	walkIn := env.placeholder(t, x.ID, "Walk-in")
	group, err := env.groupService.CreateGroup(ctx, x.ID, &models.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{selfX.ID, walkIn.ID},
	})
	require.NoError(t, err)

	_, err = env.expenseService.CreateExpense(ctx, y.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Groceries",
		Amount:         decimal.RequireFromString("30.00"),
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, walkIn.ID},
	})
	assert.ErrorIs(t, err, ErrNotGroupOwner)

	_, err = env.expenseService.ListGroupExpenses(ctx, y.ID, group.ID)
	assert.ErrorIs(t, err, ErrNotGroupOwner)
}

func TestEqualSplitRemainderOnLastShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	a := env.placeholder(t, x.ID, "Ana")
	b := env.placeholder(t, x.ID, "Ben")
	group, err := env.groupService.CreateGroup(ctx, x.ID, &models.CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: []string{selfX.ID, a.ID, b.ID},
	})
	require.NoError(t, err)

	amount := decimal.RequireFromString("100.00")
	expense, err := env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
		GroupID:        group.ID,
		Description:    "Hotel",
		Amount:         amount,
		PaidByID:       selfX.ID,
		ParticipantIDs: []string{selfX.ID, a.ID, b.ID},
	})
	require.NoError(t, err)
	require.Len(t, expense.Splits, 3)

	total := decimal.Zero
	for _, split := range expense.Splits {
		total = total.Add(split.Amount)
	}
	assert.True(t, total.Equal(amount), "splits sum to the amount, got %s", total)
	assert.True(t, expense.Splits[0].Amount.Equal(decimal.RequireFromString("33.33")))
	assert.True(t, expense.Splits[2].Amount.Equal(decimal.RequireFromString("33.34")))
}

func TestListGroupExpenses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.register(t, "xavier", "x@example.com")

	selfX := env.selfMember(t, x)
	walkIn := env.placeholder(t, x.ID, "Walk-in")
	group, err := env.groupService.CreateGroup(ctx, x.ID, &models.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{selfX.ID, walkIn.ID},
	})
	require.NoError(t, err)

	for _, desc := range []string{"Rent", "Power"} {
		_, err := env.expenseService.CreateExpense(ctx, x.ID, &models.CreateExpenseRequest{
			GroupID:        group.ID,
			Description:    desc,
			Amount:         decimal.RequireFromString("50.00"),
			PaidByID:       selfX.ID,
			ParticipantIDs: []string{selfX.ID, walkIn.ID},
		})
		require.NoError(t, err)
	}

	expenses, err := env.expenseService.ListGroupExpenses(ctx, x.ID, group.ID)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}
