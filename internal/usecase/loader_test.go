package usecase_test

import (
	"context"
	"testing"

	"mail-routing-service/internal/domain"
	"mail-routing-service/internal/usecase"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDataSource struct {
	mock.Mock
}

func (m *mockDataSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockDataSource) Users(ctx context.Context) ([]domain.UserRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.UserRow)
	return rows, args.Error(1)
}

func (m *mockDataSource) UserAliases(ctx context.Context) ([]domain.UserAliasRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.UserAliasRow)
	return rows, args.Error(1)
}

func (m *mockDataSource) UserForwards(ctx context.Context) ([]domain.UserForwardRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.UserForwardRow)
	return rows, args.Error(1)
}

func (m *mockDataSource) GroupAliases(ctx context.Context) ([]domain.GroupAliasRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.GroupAliasRow)
	return rows, args.Error(1)
}

func (m *mockDataSource) GroupRecipients(ctx context.Context) ([]domain.GroupRecipientRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.GroupRecipientRow)
	return rows, args.Error(1)
}

func (m *mockDataSource) EmailGroupClosure(ctx context.Context) ([]domain.GroupClosureRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.GroupClosureRow)
	return rows, args.Error(1)
}

func (m *mockDataSource) GroupMembers(ctx context.Context) ([]domain.GroupMemberRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.GroupMemberRow)
	return rows, args.Error(1)
}

func addressStrings(addrs []*domain.EmailAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.Address)
	}
	return out
}

func TestLoaderUseCase_Load_FullGraph(t *testing.T) {
	ctx := context.Background()
	source := &mockDataSource{}
	logger, hook := logrustest.NewNullLogger()
	uc := usecase.NewLoaderUseCase(source, logger)

	source.On("Users", ctx).Return([]domain.UserRow{
		{UserID: "1001", Username: "alice"},
		{UserID: "1002", Username: "bob"},
	}, nil)
	source.On("UserAliases", ctx).Return([]domain.UserAliasRow{
		{UserID: "1001", Alias: "ali"},
		{UserID: "1001", Alias: "alice.a@mail.example.com"},
	}, nil)
	source.On("UserForwards", ctx).Return([]domain.UserForwardRow{
		{UserID: "1001", Forward: "alice@gmail.com; a2@example.com,bad address"},
	}, nil)
	source.On("GroupAliases", ctx).Return([]domain.GroupAliasRow{
		{GroupID: "2001", Alias: "staff"},
		{GroupID: "2001", Alias: "staff@lists.example.com"},
	}, nil)
	source.On("GroupRecipients", ctx).Return([]domain.GroupRecipientRow{
		{GroupID: "2001", Recipient: "archive@other.org"},
		{GroupID: "2001", Recipient: " bad recip"},
	}, nil)
	source.On("EmailGroupClosure", ctx).Return([]domain.GroupClosureRow{
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2002", Path: []string{"2001", "2002"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001", "2002", "2001"}, Cycle: true},
	}, nil)
	source.On("GroupMembers", ctx).Return([]domain.GroupMemberRow{
		{GroupID: "2001", UserID: "1001"},
		{GroupID: "2002", UserID: "1002"},
		{GroupID: "9999", UserID: "1001"},
	}, nil)

	registry := domain.NewRegistry("example.com")
	stats, err := uc.Load(ctx, registry)
	require.NoError(t, err)

	assert.Equal(t, &domain.LoadStats{
		Users:              2,
		Groups:             2,
		Addresses:          11,
		Domains:            3,
		ExcludedForwards:   1,
		ExcludedRecipients: 1,
		Cycles:             1,
	}, stats)

	// Пользователь: адреса из uid и username, затем алиасы пачкой в
	// порядке строки адреса
	alice, err := registry.Users.Get("1001", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, []string{
		"1001@example.com",
		"alice@example.com",
		"ali@example.com",
		"alice.a@mail.example.com",
	}, addressStrings(alice.Addresses))
	assert.True(t, alice.HasEmailDelivery())

	bob, err := registry.Users.Get("1002", false)
	require.NoError(t, err)
	assert.False(t, bob.HasEmailDelivery())

	// Алиас с "@" регистрирует свой домен
	assert.Equal(t, []string{
		"example.com",
		"lists.example.com",
		"mail.example.com",
	}, registry.Domains.Sorted())

	// Группа: имя из иерархии, алиасы отсортированы, сама группа
	// числится собственной вложенной группой
	staff := registry.Groups.Get("2001", false)
	require.NotNil(t, staff)
	assert.Equal(t, "staff", staff.Name)
	assert.Equal(t, []string{
		"staff@example.com",
		"staff@lists.example.com",
	}, addressStrings(staff.Addresses))

	delivery, err := staff.Delivery()
	require.NoError(t, err)
	assert.True(t, delivery.Defined)
	assert.Equal(t, []string{
		"archive@other.org",
		"a2@example.com",
		"alice@gmail.com",
	}, addressStrings(delivery.Recipients))
	assert.Equal(t,
		"group 2001 (staff): 2 member forwards, 1 direct recipients, via 2 member groups",
		delivery.Comment)

	// Членство в незагруженной группе молча пропускается
	assert.Nil(t, registry.Groups.Get("9999", false))

	// Предупреждения: пересылка, получатель, цикл
	messages := make([]string, 0, len(hook.Entries))
	for _, entry := range hook.Entries {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{
		"Excluding invalid email forward",
		"Excluding invalid email member",
		"Cyclic group memberships",
	}, messages)
	assert.Equal(t,
		"group 2001 (staff) has member group 2002 has member group 2001 (staff)",
		hook.Entries[2].Data["path"])
}

func TestLoaderUseCase_Load_SelfCycleWarning(t *testing.T) {
	ctx := context.Background()
	source := &mockDataSource{}
	logger, hook := logrustest.NewNullLogger()
	uc := usecase.NewLoaderUseCase(source, logger)

	source.On("Users", ctx).Return([]domain.UserRow{}, nil)
	source.On("UserAliases", ctx).Return([]domain.UserAliasRow{}, nil)
	source.On("UserForwards", ctx).Return([]domain.UserForwardRow{}, nil)
	source.On("GroupAliases", ctx).Return([]domain.GroupAliasRow{
		{GroupID: "2001", Alias: "staff"},
	}, nil)
	source.On("GroupRecipients", ctx).Return([]domain.GroupRecipientRow{}, nil)
	source.On("EmailGroupClosure", ctx).Return([]domain.GroupClosureRow{
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001", "2001"}, Cycle: true},
	}, nil)
	source.On("GroupMembers", ctx).Return([]domain.GroupMemberRow{}, nil)

	stats, err := uc.Load(ctx, domain.NewRegistry("example.com"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Cycles)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "Cyclic group memberships: group is a direct member of itself", hook.Entries[0].Message)
	assert.Equal(t, "group 2001 (staff)", hook.Entries[0].Data["group"])
}

func TestLoaderUseCase_Load_AliasForUnknownUser(t *testing.T) {
	ctx := context.Background()
	source := &mockDataSource{}
	logger, _ := logrustest.NewNullLogger()
	uc := usecase.NewLoaderUseCase(source, logger)

	source.On("Users", ctx).Return([]domain.UserRow{}, nil)
	source.On("UserAliases", ctx).Return([]domain.UserAliasRow{
		{UserID: "1001", Alias: "ali"},
	}, nil)

	stats, err := uc.Load(ctx, domain.NewRegistry("example.com"))
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, domain.ErrUndefinedReference)
}

func TestLoaderUseCase_Load_InvalidUserAliasFatal(t *testing.T) {
	ctx := context.Background()
	source := &mockDataSource{}
	logger, _ := logrustest.NewNullLogger()
	uc := usecase.NewLoaderUseCase(source, logger)

	source.On("Users", ctx).Return([]domain.UserRow{
		{UserID: "1001", Username: "alice"},
	}, nil)
	source.On("UserAliases", ctx).Return([]domain.UserAliasRow{
		{UserID: "1001", Alias: "bad alias"},
	}, nil)

	stats, err := uc.Load(ctx, domain.NewRegistry("example.com"))
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestLoaderUseCase_Load_MemberUserMissing(t *testing.T) {
	ctx := context.Background()
	source := &mockDataSource{}
	logger, _ := logrustest.NewNullLogger()
	uc := usecase.NewLoaderUseCase(source, logger)

	source.On("Users", ctx).Return([]domain.UserRow{}, nil)
	source.On("UserAliases", ctx).Return([]domain.UserAliasRow{}, nil)
	source.On("UserForwards", ctx).Return([]domain.UserForwardRow{}, nil)
	source.On("GroupAliases", ctx).Return([]domain.GroupAliasRow{
		{GroupID: "2001", Alias: "staff"},
	}, nil)
	source.On("GroupRecipients", ctx).Return([]domain.GroupRecipientRow{}, nil)
	source.On("EmailGroupClosure", ctx).Return([]domain.GroupClosureRow{
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001"}},
	}, nil)
	source.On("GroupMembers", ctx).Return([]domain.GroupMemberRow{
		{GroupID: "2001", UserID: "404"},
	}, nil)

	stats, err := uc.Load(ctx, domain.NewRegistry("example.com"))
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, domain.ErrUndefinedReference)
	assert.Contains(t, err.Error(), "user 404")
}

func TestLoaderUseCase_Load_SourceError(t *testing.T) {
	ctx := context.Background()
	source := &mockDataSource{}
	logger, _ := logrustest.NewNullLogger()
	uc := usecase.NewLoaderUseCase(source, logger)

	source.On("Users", ctx).Return(nil, assert.AnError)

	stats, err := uc.Load(ctx, domain.NewRegistry("example.com"))
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, assert.AnError)
}
