package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"mail-routing-service/internal/domain"
)

// LoaderUseCase реализует загрузку маршрутного графа из снимка данных.
type LoaderUseCase struct {
	source domain.DataSource
	logger *logrus.Logger
}

// NewLoaderUseCase создает новый экземпляр LoaderUseCase.
func NewLoaderUseCase(source domain.DataSource, logger *logrus.Logger) domain.LoaderUseCase {
	return &LoaderUseCase{
		source: source,
		logger: logger,
	}
}

// Load заполняет реестр из снимка данных. Невалидные адреса пересылки
// и получателей исключаются с предупреждением, невалидный алиас
// прерывает загрузку. Ссылка на незагруженного пользователя означает,
// что снимок неполон: загрузка прерывается, запуск стоит повторить
// позже целиком.
func (uc *LoaderUseCase) Load(ctx context.Context, registry *domain.Registry) (*domain.LoadStats, error) {
	stats := &domain.LoadStats{}

	// 1. Пользователи: адрес из uid, затем username и адрес из него
	users, err := uc.source.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range users {
		user, err := registry.Users.Get(row.UserID, true)
		if err != nil {
			return nil, err
		}
		addr, err := registry.Addresses.Resolve(row.UserID, true)
		if err != nil {
			return nil, err
		}
		user.AddAddress(addr)
		user.Username = row.Username
		addr, err = registry.Addresses.Resolve(row.Username, true)
		if err != nil {
			return nil, err
		}
		user.AddAddress(addr)
	}

	// 2. Алиасы пользователей, пачкой на пользователя
	aliases, err := uc.source.UserAliases(ctx)
	if err != nil {
		return nil, err
	}
	aliasesByUser := make(map[string][]string)
	for _, row := range aliases {
		aliasesByUser[row.UserID] = append(aliasesByUser[row.UserID], row.Alias)
	}
	for _, userID := range sortedKeys(aliasesByUser) {
		user, err := registry.Users.Get(userID, false)
		if err != nil {
			return nil, err
		}
		batch := aliasesByUser[userID]
		for _, alias := range batch {
			if strings.Contains(alias, "@") {
				registry.Domains.AddFromEmail(alias)
			}
		}
		addrs := make([]*domain.EmailAddress, 0, len(batch))
		for _, alias := range batch {
			addr, err := registry.Addresses.Resolve(alias, true)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, addr)
		}
		sort.SliceStable(addrs, func(i, j int) bool {
			return addrs[i].Address < addrs[j].Address
		})
		for _, addr := range addrs {
			user.AddAddress(addr)
		}
	}

	// 3. Пересылка: список адресов через ";" и ","
	forwards, err := uc.source.UserForwards(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range forwards {
		user, err := registry.Users.Get(row.UserID, false)
		if err != nil {
			return nil, err
		}
		for _, part := range splitListString(row.Forward) {
			clean := strings.TrimSpace(part)
			addr, err := registry.Addresses.Resolve(clean, true)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidAddress) {
					uc.logger.WithFields(logrus.Fields{
						"forward": clean,
						"user":    user.String(),
					}).Warn("Excluding invalid email forward")
					stats.ExcludedForwards++
					continue
				}
				return nil, err
			}
			user.AddEmailForward(addr)
		}
	}

	// 4. Алиасы групп, пачкой на группу
	groupAliases, err := uc.source.GroupAliases(ctx)
	if err != nil {
		return nil, err
	}
	aliasesByGroup := make(map[string][]string)
	for _, row := range groupAliases {
		aliasesByGroup[row.GroupID] = append(aliasesByGroup[row.GroupID], row.Alias)
	}
	for _, groupID := range sortedKeys(aliasesByGroup) {
		group := registry.Groups.Get(groupID, true)
		batch := aliasesByGroup[groupID]
		for _, alias := range batch {
			if strings.Contains(alias, "@") {
				registry.Domains.AddFromEmail(alias)
			}
		}
		addrs := make([]*domain.EmailAddress, 0, len(batch))
		for _, alias := range batch {
			addr, err := registry.Addresses.Resolve(strings.TrimSpace(alias), true)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, addr)
		}
		sort.SliceStable(addrs, func(i, j int) bool {
			return addrs[i].Address < addrs[j].Address
		})
		for _, addr := range addrs {
			group.AddAddress(addr)
		}
	}

	// 5. Напрямую назначенные получатели групп
	recipients, err := uc.source.GroupRecipients(ctx)
	if err != nil {
		return nil, err
	}
	recipientsByGroup := make(map[string][]string)
	for _, row := range recipients {
		recipientsByGroup[row.GroupID] = append(recipientsByGroup[row.GroupID], row.Recipient)
	}
	for _, groupID := range sortedKeys(recipientsByGroup) {
		group := registry.Groups.Get(groupID, true)
		for _, recipient := range recipientsByGroup[groupID] {
			addr, err := registry.Addresses.Resolve(strings.TrimSpace(recipient), true)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidAddress) {
					uc.logger.WithFields(logrus.Fields{
						"recipient": recipient,
						"group":     group.String(),
					}).Warn("Excluding invalid email member")
					stats.ExcludedRecipients++
					continue
				}
				return nil, err
			}
			group.AddEmailRecipient(addr)
		}
	}

	// 6. Развернутая иерархия групп с почтовыми алиасами
	closure, err := uc.source.EmailGroupClosure(ctx)
	if err != nil {
		return nil, err
	}
	var cyclicPaths [][]*domain.Group
	for _, row := range closure {
		group := registry.Groups.Get(row.GroupID, true)
		group.Name = row.GroupName
		group.AddMemberGroup(registry.Groups.Get(row.MemberGroupID, true))
		if row.Cycle {
			path := make([]*domain.Group, 0, len(row.Path))
			for _, id := range row.Path {
				path = append(path, registry.Groups.Get(id, true))
			}
			cyclicPaths = append(cyclicPaths, path)
		}
	}

	// 7. Прямые членства. Большинство не понадобится, но это проще,
	// чем усложнять рекурсивный запрос.
	memberships, err := uc.source.GroupMembers(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range memberships {
		group := registry.Groups.Get(row.GroupID, false)
		if group == nil {
			continue
		}
		user, err := registry.Users.Get(row.UserID, false)
		if err != nil {
			return nil, err
		}
		group.AddMemberUser(user)
	}

	// 8. Предупреждения о циклах, в устойчивом порядке
	sort.SliceStable(cyclicPaths, func(i, j int) bool {
		return compareGroupPaths(cyclicPaths[i], cyclicPaths[j]) < 0
	})
	for _, path := range cyclicPaths {
		if len(path) == 2 && path[0] == path[1] {
			uc.logger.WithField("group", path[0].String()).
				Warn("Cyclic group memberships: group is a direct member of itself")
		} else {
			names := make([]string, 0, len(path))
			for _, g := range path {
				names = append(names, g.String())
			}
			uc.logger.WithField("path", strings.Join(names, " has member ")).
				Warn("Cyclic group memberships")
		}
		stats.Cycles++
	}

	stats.Users = registry.Users.Len()
	stats.Groups = registry.Groups.Len()
	stats.Addresses = registry.Addresses.Len()
	stats.Domains = registry.Domains.Len()
	return stats, nil
}

// splitListString разбивает список адресов, разделенных ";" и ",".
func splitListString(s string) []string {
	var out []string
	for _, semi := range strings.Split(s, ";") {
		out = append(out, strings.Split(semi, ",")...)
	}
	return out
}

// sortedKeys возвращает ключи в отсортированном порядке: пачки
// обрабатываются детерминированно независимо от порядка строк снимка.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// compareGroupPaths сравнивает пути циклов поэлементно в порядке
// CompareGroups, более короткий префикс идет первым.
func compareGroupPaths(a, b []*domain.Group) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := domain.CompareGroups(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
