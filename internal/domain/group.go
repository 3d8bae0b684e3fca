package domain

import (
	"fmt"
	"sort"
)

// Group представляет группу рассылки: участники-пользователи, вложенные
// группы и напрямую назначенные получатели. Name опционален и
// проставляется загрузчиком из данных группы. Addresses хранит почтовые
// алиасы группы; группа участвует в маршрутизации, только если у нее
// есть хотя бы один алиас.
type Group struct {
	ID        string
	Name      string
	Addresses []*EmailAddress

	memberUsers     map[string]*User
	memberGroups    map[string]*Group
	emailRecipients map[string]*EmailAddress
}

// Valid проверяет, что группа полностью определена (есть имя).
func (g *Group) Valid() bool {
	return g.Name != ""
}

// EmailEnabled проверяет, что у группы есть почтовые алиасы.
func (g *Group) EmailEnabled() bool {
	return len(g.Addresses) > 0
}

// AddAddress добавляет почтовый алиас группы.
func (g *Group) AddAddress(addr *EmailAddress) {
	g.Addresses = append(g.Addresses, addr)
}

// AddMemberUser добавляет прямого участника-пользователя.
func (g *Group) AddMemberUser(u *User) {
	if g.memberUsers == nil {
		g.memberUsers = make(map[string]*User)
	}
	g.memberUsers[u.ID] = u
}

// AddMemberGroup добавляет прямую вложенную группу. Группа может
// числиться собственной вложенной группой: так ее прямые участники
// попадают в ее же действующий состав.
func (g *Group) AddMemberGroup(member *Group) {
	if g.memberGroups == nil {
		g.memberGroups = make(map[string]*Group)
	}
	g.memberGroups[member.ID] = member
}

// AddEmailRecipient добавляет напрямую назначенного получателя.
func (g *Group) AddEmailRecipient(addr *EmailAddress) {
	if g.emailRecipients == nil {
		g.emailRecipients = make(map[string]*EmailAddress)
	}
	g.emailRecipients[addr.Address] = addr
}

// HasEmailRecipients проверяет, что у группы есть напрямую назначенные
// получатели.
func (g *Group) HasEmailRecipients() bool {
	return len(g.emailRecipients) > 0
}

// Recipients возвращает напрямую назначенных получателей в порядке
// CompareAddresses. Если список получателей у группы не определен,
// возвращает ErrInvalidStateAccess: вызывающий код обязан сначала
// проверить HasEmailRecipients.
func (g *Group) Recipients() ([]*EmailAddress, error) {
	if g.emailRecipients == nil {
		return nil, fmt.Errorf("%s: email recipients: %w", g, ErrInvalidStateAccess)
	}
	addrs := make([]*EmailAddress, 0, len(g.emailRecipients))
	for _, addr := range g.emailRecipients {
		addrs = append(addrs, addr)
	}
	SortAddresses(addrs)
	return addrs, nil
}

// MemberUsers возвращает прямых участников в порядке CompareUsers.
func (g *Group) MemberUsers() []*User {
	users := make([]*User, 0, len(g.memberUsers))
	for _, u := range g.memberUsers {
		users = append(users, u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return CompareUsers(users[i], users[j]) < 0
	})
	return users
}

// MemberGroups возвращает прямые вложенные группы в порядке CompareGroups.
func (g *Group) MemberGroups() []*Group {
	groups := make([]*Group, 0, len(g.memberGroups))
	for _, member := range g.memberGroups {
		groups = append(groups, member)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return CompareGroups(groups[i], groups[j]) < 0
	})
	return groups
}

// RecursiveMemberUsers возвращает действующий состав группы: объединение
// прямых участников всех прямых вложенных групп, без дубликатов, в
// порядке CompareUsers. Обход ровно на один уровень вглубь: вложенные
// группы вложенных групп не раскрываются, а собственные прямые
// участники группы входят в состав, только если группа числится
// собственной вложенной группой.
func (g *Group) RecursiveMemberUsers() []*User {
	seen := make(map[string]*User)
	for _, member := range g.memberGroups {
		for id, u := range member.memberUsers {
			seen[id] = u
		}
	}
	users := make([]*User, 0, len(seen))
	for _, u := range seen {
		users = append(users, u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return CompareUsers(users[i], users[j]) < 0
	})
	return users
}

// RecursiveEmailRecipients возвращает объединение напрямую назначенных
// получателей всех прямых вложенных групп, без дубликатов, в порядке
// CompareAddresses. Обход на один уровень вглубь, как и в
// RecursiveMemberUsers.
func (g *Group) RecursiveEmailRecipients() []*EmailAddress {
	seen := make(map[string]*EmailAddress)
	for _, member := range g.memberGroups {
		for key, addr := range member.emailRecipients {
			seen[key] = addr
		}
	}
	addrs := make([]*EmailAddress, 0, len(seen))
	for _, addr := range seen {
		addrs = append(addrs, addr)
	}
	SortAddresses(addrs)
	return addrs
}

// Delivery разрешает доставку для группы: собирает действующий состав,
// проверяет его целостность и строит итоговый список получателей с
// предупреждениями о ненадежных маршрутах.
func (g *Group) Delivery() (Delivery, error) {
	members := g.RecursiveMemberUsers()

	// 1. Проверяем целостность состава: каждый участник должен быть
	// полностью определен.
	var invalid []string
	for _, m := range members {
		if !m.Valid() {
			invalid = append(invalid, m.String())
		}
	}
	if len(invalid) > 0 {
		return Delivery{}, fmt.Errorf("%s: invalid members (%d): %s: %w",
			g, len(invalid), truncateEntityList(invalid), ErrGroupIntegrity)
	}

	// 2. Делим состав на участников с пересылкой и без.
	var withDelivery, withoutDelivery []*User
	for _, m := range members {
		if m.HasEmailDelivery() {
			withDelivery = append(withDelivery, m)
		} else {
			withoutDelivery = append(withoutDelivery, m)
		}
	}

	// 3. Получатели: сначала напрямую назначенные получатели вложенных
	// групп, затем адреса пересылки участников в порядке CompareUsers.
	direct := g.RecursiveEmailRecipients()
	recipients := make([]*EmailAddress, 0, len(direct))
	recipients = append(recipients, direct...)
	memberForwards := 0
	for _, m := range withDelivery {
		addrs, _ := m.ForwardAddresses()
		recipients = append(recipients, addrs...)
		memberForwards += len(addrs)
	}

	if len(recipients) == 0 {
		return Delivery{
			Comment: fmt.Sprintf("%s has addresses but no members with delivery enabled", g),
		}, nil
	}

	// 4. Собираем предупреждения о ненадежных маршрутах.
	var warnings []string
	if len(withoutDelivery) > 0 {
		names := make([]string, 0, len(withoutDelivery))
		for _, m := range withoutDelivery {
			names = append(names, m.String())
		}
		warnings = append(warnings, fmt.Sprintf("%s: members without email delivery (%d): %s",
			g, len(withoutDelivery), truncateEntityList(names)))
	}
	var externalForwarders []string
	for _, m := range withDelivery {
		if m.ExternalForward() {
			externalForwarders = append(externalForwarders, m.String())
		}
	}
	if len(externalForwarders) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: members forwarding to external addresses (%d), delivery may be unreliable: %s",
			g, len(externalForwarders), truncateEntityList(externalForwarders)))
	}
	for _, addr := range direct {
		if addr.External {
			warnings = append(warnings, fmt.Sprintf("%s: external recipients in recipient list", g))
			break
		}
	}

	comment := fmt.Sprintf("%s: %d member forwards, %d direct recipients", g, memberForwards, len(direct))
	if len(g.memberGroups) > 1 {
		comment += fmt.Sprintf(", via %d member groups", len(g.memberGroups))
	}

	return Delivery{
		Recipients: recipients,
		Comment:    comment,
		Warnings:   warnings,
		Defined:    true,
	}, nil
}

// String возвращает отображаемое имя группы для логов, предупреждений
// и комментариев.
func (g *Group) String() string {
	if g.Name == "" {
		return fmt.Sprintf("group %s", g.ID)
	}
	return fmt.Sprintf("group %s (%s)", g.ID, g.Name)
}

// CompareGroups задает «дружелюбный» порядок вывода групп: по имени
// (пустое сортируется первым), затем по ID.
func CompareGroups(a, b *Group) int {
	if a.Name != b.Name {
		if a.Name < b.Name {
			return -1
		}
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
