package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mail-routing-service/internal/domain"
	"mail-routing-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Снимок с вложенностью, циклом и группой-призраком 2004 без строки в
// group_data. Группа 2005 известна только как вложенная, это нормально.
const fixtureYAML = `
users:
  - uid: "1002"
    username: bob
  - uid: "1001"
    username: alice
    email_forward: "alice@gmail.com"
user_aliases:
  - uid: "1002"
    alias: bobby
  - uid: "1001"
    alias: ali
group_data:
  - gid: "2001"
    name: staff
  - gid: "2002"
    name: eng
  - gid: "2003"
    name: ops
group_aliases:
  - gid: "2003"
    email_alias: ops
  - gid: "2001"
    email_alias: staff
  - gid: "2004"
    email_alias: ghost
group_email_recipients:
  - gid: "2001"
    email_recipient: archive@other.org
groups_in_groups:
  - gid: "2001"
    group_member: "2002"
  - gid: "2002"
    group_member: "2001"
  - gid: "2002"
    group_member: "2005"
members_of_groups:
  - gid: "2001"
    uid: "1001"
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFixtureSource(t *testing.T) domain.DataSource {
	t.Helper()
	source, err := repository.NewFixtureSource(writeFixture(t, fixtureYAML))
	require.NoError(t, err)
	return source
}

func TestFixtureSource_Name(t *testing.T) {
	assert.Equal(t, "fixture", newFixtureSource(t).Name())
}

func TestFixtureSource_MissingFile(t *testing.T) {
	source, err := repository.NewFixtureSource(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Nil(t, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fixture file")
}

func TestFixtureSource_InvalidYAML(t *testing.T) {
	source, err := repository.NewFixtureSource(writeFixture(t, "users: {not: [a, sequence"))
	assert.Nil(t, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fixture file")
}

func TestFixtureSource_Users_Sorted(t *testing.T) {
	rows, err := newFixtureSource(t).Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.UserRow{
		{UserID: "1001", Username: "alice"},
		{UserID: "1002", Username: "bob"},
	}, rows)
}

func TestFixtureSource_UserAliases_SortedByUserID(t *testing.T) {
	rows, err := newFixtureSource(t).UserAliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.UserAliasRow{
		{UserID: "1001", Alias: "ali"},
		{UserID: "1002", Alias: "bobby"},
	}, rows)
}

func TestFixtureSource_UserForwards_SkipsEmpty(t *testing.T) {
	rows, err := newFixtureSource(t).UserForwards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.UserForwardRow{
		{UserID: "1001", Forward: "alice@gmail.com"},
	}, rows)
}

func TestFixtureSource_GroupAliases_KeepsSnapshotOrder(t *testing.T) {
	rows, err := newFixtureSource(t).GroupAliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.GroupAliasRow{
		{GroupID: "2003", Alias: "ops"},
		{GroupID: "2001", Alias: "staff"},
		{GroupID: "2004", Alias: "ghost"},
	}, rows)
}

func TestFixtureSource_GroupRecipients(t *testing.T) {
	rows, err := newFixtureSource(t).GroupRecipients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.GroupRecipientRow{
		{GroupID: "2001", Recipient: "archive@other.org"},
	}, rows)
}

func TestFixtureSource_GroupMembers(t *testing.T) {
	rows, err := newFixtureSource(t).GroupMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.GroupMemberRow{
		{GroupID: "2001", UserID: "1001"},
	}, rows)
}

func TestFixtureSource_EmailGroupClosure(t *testing.T) {
	rows, err := newFixtureSource(t).EmailGroupClosure(context.Background())
	require.NoError(t, err)

	// ops идет первой по имени; 2004 без group_data отброшена; у членов
	// group_data не требуется, поэтому 2005 в составе staff остается
	assert.Equal(t, []domain.GroupClosureRow{
		{GroupID: "2003", GroupName: "ops", MemberGroupID: "2003", Path: []string{"2003"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2002", Path: []string{"2001", "2002"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001", "2002", "2001"}, Cycle: true},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2005", Path: []string{"2001", "2002", "2005"}},
	}, rows)
}

func TestFixtureSource_EmailGroupClosure_SelfMembership(t *testing.T) {
	source, err := repository.NewFixtureSource(writeFixture(t, `
group_data:
  - gid: "2001"
    name: staff
group_aliases:
  - gid: "2001"
    email_alias: staff
groups_in_groups:
  - gid: "2001"
    group_member: "2001"
`))
	require.NoError(t, err)

	rows, err := source.EmailGroupClosure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.GroupClosureRow{
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001"}},
		{GroupID: "2001", GroupName: "staff", MemberGroupID: "2001", Path: []string{"2001", "2001"}, Cycle: true},
	}, rows)
}
