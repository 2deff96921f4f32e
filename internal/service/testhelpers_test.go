package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"split-service/internal/database"
	"split-service/internal/models"
	"split-service/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db *gorm.DB

	users         *repository.UserRepository
	members       *repository.MemberRepository
	aliases       *repository.AliasRepository
	relationships *repository.RelationshipRepository
	requests      *repository.FriendRequestRepository
	groups        *repository.GroupRepository
	expenses      *repository.ExpenseRepository

	userService         *UserService
	memberService       *MemberService
	resolveService      *ResolveService
	mergeService        *MergeService
	relationshipService *RelationshipService
	groupService        *GroupService
	expenseService      *ExpenseService
	lifecycleService    *LifecycleService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, 7*24*time.Hour, true)
}

func newTestEnvWith(t *testing.T, requestTTL time.Duration, allowReRequest bool) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		members:       repository.NewMemberRepository(db),
		aliases:       repository.NewAliasRepository(db),
		relationships: repository.NewRelationshipRepository(db),
		requests:      repository.NewFriendRequestRepository(db),
		groups:        repository.NewGroupRepository(db),
		expenses:      repository.NewExpenseRepository(db),
	}

	env.resolveService = NewResolveService(env.aliases)
	env.userService = NewUserService(db, env.users, env.members, "test-secret", time.Hour)
	env.memberService = NewMemberService(env.members, env.resolveService)
	env.mergeService = NewMergeService(db, env.aliases, env.members, nil)
	env.relationshipService = NewRelationshipService(
		db, env.relationships, env.requests, env.members, env.users, env.groups, nil,
		requestTTL, allowReRequest,
	)
	env.groupService = NewGroupService(db, env.groups, env.members, env.relationshipService)
	env.expenseService = NewExpenseService(db, env.expenses, env.groups, env.members, env.aliases, env.relationships)
	env.lifecycleService = NewLifecycleService(
		db, env.members, env.aliases, env.relationships, env.requests, env.groups, env.expenses, env.users, nil,
	)
	return env
}

func (e *testEnv) register(t *testing.T, username, email string) *models.User {
	t.Helper()
	_, err := e.userService.Register(context.Background(), &models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)

	user, err := e.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

// selfMember returns the address-book entry an account holds for itself.
func (e *testEnv) selfMember(t *testing.T, user *models.User) *models.Member {
	t.Helper()
	member, err := e.members.FindByOwnerAndUser(context.Background(), user.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, member)
	return member
}

func (e *testEnv) placeholder(t *testing.T, ownerID uint, name string) *models.Member {
	t.Helper()
	member, err := e.memberService.CreatePlaceholder(context.Background(), ownerID, name)
	require.NoError(t, err)
	return member
}

// memberFor returns owner's entry for another verified account, which
// exists once a handshake or group add has run.
func (e *testEnv) memberFor(t *testing.T, ownerID uint, account *models.User) *models.Member {
	t.Helper()
	member, err := e.members.FindByOwnerAndUser(context.Background(), ownerID, account.ID)
	require.NoError(t, err)
	require.NotNil(t, member)
	return member
}

// handshake runs a full send -> accept between two accounts.
func (e *testEnv) handshake(t *testing.T, sender, recipient *models.User) {
	t.Helper()
	ctx := context.Background()
	request, err := e.relationshipService.SendRequest(ctx, sender.ID, recipient.Email)
	require.NoError(t, err)
	require.NoError(t, e.relationshipService.AcceptRequest(ctx, recipient.ID, request.ID))
}

// rawEdge inserts an alias edge directly, bypassing merge validation.
// Used to simulate malformed data the resolution engine must survive.
func (e *testEnv) rawEdge(t *testing.T, alias, canonical string) {
	t.Helper()
	require.NoError(t, e.aliases.Create(context.Background(), &models.AliasEdge{
		AliasID:     alias,
		CanonicalID: canonical,
		CreatedByID: 1,
	}))
}
