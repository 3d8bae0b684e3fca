package repository

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"mail-routing-service/internal/domain"
)

type fixtureUser struct {
	UID          string `yaml:"uid"`
	Username     string `yaml:"username"`
	EmailForward string `yaml:"email_forward"`
}

type fixtureUserAlias struct {
	UID   string `yaml:"uid"`
	Alias string `yaml:"alias"`
}

type fixtureGroupData struct {
	GID  string `yaml:"gid"`
	Name string `yaml:"name"`
}

type fixtureGroupAlias struct {
	GID        string `yaml:"gid"`
	EmailAlias string `yaml:"email_alias"`
}

type fixtureGroupRecipient struct {
	GID            string `yaml:"gid"`
	EmailRecipient string `yaml:"email_recipient"`
}

type fixtureGroupEdge struct {
	GID         string `yaml:"gid"`
	GroupMember string `yaml:"group_member"`
}

type fixtureGroupMember struct {
	GID string `yaml:"gid"`
	UID string `yaml:"uid"`
}

// fixtureFile повторяет табличную структуру снимка данных в PostgreSQL.
type fixtureFile struct {
	Users           []fixtureUser           `yaml:"users"`
	UserAliases     []fixtureUserAlias      `yaml:"user_aliases"`
	GroupData       []fixtureGroupData      `yaml:"group_data"`
	GroupAliases    []fixtureGroupAlias     `yaml:"group_aliases"`
	GroupRecipients []fixtureGroupRecipient `yaml:"group_email_recipients"`
	GroupsInGroups  []fixtureGroupEdge      `yaml:"groups_in_groups"`
	MembersOfGroups []fixtureGroupMember    `yaml:"members_of_groups"`
}

// FixtureSource реализует чтение снимка данных из YAML-файла. Иерархию
// групп источник разворачивает сам, тем же способом, что и рекурсивный
// запрос PostgresSource.
type FixtureSource struct {
	file fixtureFile
}

// NewFixtureSource создает новый экземпляр FixtureSource, читая файл
// целиком.
func NewFixtureSource(path string) (domain.DataSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	return &FixtureSource{file: file}, nil
}

// Name возвращает имя источника для логов.
func (s *FixtureSource) Name() string {
	return "fixture"
}

// Users возвращает пользователей снимка в порядке (uid, username).
func (s *FixtureSource) Users(ctx context.Context) ([]domain.UserRow, error) {
	out := make([]domain.UserRow, 0, len(s.file.Users))
	for _, u := range s.file.Users {
		out = append(out, domain.UserRow{UserID: u.UID, Username: u.Username})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// UserAliases возвращает почтовые алиасы пользователей в порядке uid.
func (s *FixtureSource) UserAliases(ctx context.Context) ([]domain.UserAliasRow, error) {
	out := make([]domain.UserAliasRow, 0, len(s.file.UserAliases))
	for _, a := range s.file.UserAliases {
		out = append(out, domain.UserAliasRow{UserID: a.UID, Alias: a.Alias})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// UserForwards возвращает настройки пересылки; пустая пересылка
// означает ее отсутствие.
func (s *FixtureSource) UserForwards(ctx context.Context) ([]domain.UserForwardRow, error) {
	var out []domain.UserForwardRow
	for _, u := range s.file.Users {
		if u.EmailForward != "" {
			out = append(out, domain.UserForwardRow{UserID: u.UID, Forward: u.EmailForward})
		}
	}
	return out, nil
}

// GroupAliases возвращает почтовые алиасы групп.
func (s *FixtureSource) GroupAliases(ctx context.Context) ([]domain.GroupAliasRow, error) {
	out := make([]domain.GroupAliasRow, 0, len(s.file.GroupAliases))
	for _, a := range s.file.GroupAliases {
		out = append(out, domain.GroupAliasRow{GroupID: a.GID, Alias: a.EmailAlias})
	}
	return out, nil
}

// GroupRecipients возвращает напрямую назначенных получателей групп.
func (s *FixtureSource) GroupRecipients(ctx context.Context) ([]domain.GroupRecipientRow, error) {
	out := make([]domain.GroupRecipientRow, 0, len(s.file.GroupRecipients))
	for _, r := range s.file.GroupRecipients {
		out = append(out, domain.GroupRecipientRow{GroupID: r.GID, Recipient: r.EmailRecipient})
	}
	return out, nil
}

// EmailGroupClosure разворачивает иерархию групп с почтовыми алиасами.
// Каждая группа с алиасом засевается собственной вложенной группой,
// обход идет вглубь по groups_in_groups и останавливается на ребре,
// замкнувшем цикл. Группы без строки в group_data отбрасываются.
// Результат упорядочен по имени группы.
func (s *FixtureSource) EmailGroupClosure(ctx context.Context) ([]domain.GroupClosureRow, error) {
	names := make(map[string]string, len(s.file.GroupData))
	for _, gd := range s.file.GroupData {
		names[gd.GID] = gd.Name
	}

	edges := make(map[string][]string)
	for _, e := range s.file.GroupsInGroups {
		edges[e.GID] = append(edges[e.GID], e.GroupMember)
	}

	var seeds []string
	seenSeeds := make(map[string]struct{})
	for _, a := range s.file.GroupAliases {
		if _, ok := seenSeeds[a.GID]; ok {
			continue
		}
		seenSeeds[a.GID] = struct{}{}
		seeds = append(seeds, a.GID)
	}

	var out []domain.GroupClosureRow
	seenRows := make(map[string]struct{})
	for _, seed := range seeds {
		name, ok := names[seed]
		if !ok {
			continue
		}

		emit := func(member string, path []string, cycle bool) {
			key := fmt.Sprintf("%s|%s|%v|%v", seed, member, path, cycle)
			if _, ok := seenRows[key]; ok {
				return
			}
			seenRows[key] = struct{}{}
			out = append(out, domain.GroupClosureRow{
				GroupID:       seed,
				GroupName:     name,
				MemberGroupID: member,
				Path:          path,
				Cycle:         cycle,
			})
		}

		var walk func(member string, path []string)
		walk = func(member string, path []string) {
			for _, next := range edges[member] {
				cycle := false
				for _, visited := range path {
					if visited == next {
						cycle = true
						break
					}
				}
				nextPath := make([]string, 0, len(path)+1)
				nextPath = append(nextPath, path...)
				nextPath = append(nextPath, next)
				emit(next, nextPath, cycle)
				if !cycle {
					walk(next, nextPath)
				}
			}
		}

		emit(seed, []string{seed}, false)
		walk(seed, []string{seed})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GroupName < out[j].GroupName
	})
	return out, nil
}

// GroupMembers возвращает прямые членства пользователей в группах.
func (s *FixtureSource) GroupMembers(ctx context.Context) ([]domain.GroupMemberRow, error) {
	out := make([]domain.GroupMemberRow, 0, len(s.file.MembersOfGroups))
	for _, m := range s.file.MembersOfGroups {
		out = append(out, domain.GroupMemberRow{GroupID: m.GID, UserID: m.UID})
	}
	return out, nil
}
