package domain

import (
	"fmt"
	"sort"
	"strings"
)

// AddressRegistry хранит единственный экземпляр EmailAddress на каждый
// строковый ключ адреса.
type AddressRegistry struct {
	defaultDomain string
	addresses     map[string]*EmailAddress
}

// NewAddressRegistry создает новый реестр адресов для домена по умолчанию.
func NewAddressRegistry(defaultDomain string) *AddressRegistry {
	return &AddressRegistry{
		defaultDomain: defaultDomain,
		addresses:     make(map[string]*EmailAddress),
	}
}

// Resolve возвращает адрес по строке, дополняя голую локальную часть
// доменом по умолчанию. При createIfMissing новый адрес создается,
// классифицируется и сохраняется; иначе отсутствие адреса означает
// ссылку на не определенный в снимке адрес и возвращает
// ErrUndefinedReference.
func (r *AddressRegistry) Resolve(s string, createIfMissing bool) (*EmailAddress, error) {
	key := s
	if !strings.Contains(key, "@") {
		key = key + "@" + r.defaultDomain
	}
	if addr, ok := r.addresses[key]; ok {
		return addr, nil
	}
	if !createIfMissing {
		return nil, fmt.Errorf("address %s: %w", key, ErrUndefinedReference)
	}
	addr, err := parseAddress(s, r.defaultDomain)
	if err != nil {
		return nil, err
	}
	r.addresses[addr.Address] = addr
	return addr, nil
}

// Len возвращает количество зарегистрированных адресов.
func (r *AddressRegistry) Len() int {
	return len(r.addresses)
}

// DomainRegistry хранит множество локальных доменов; домен по умолчанию
// присутствует всегда, остальные добавляет загрузчик по мере
// классификации адресов.
type DomainRegistry struct {
	domains map[string]struct{}
}

// NewDomainRegistry создает новый реестр доменов с доменом по умолчанию.
func NewDomainRegistry(defaultDomain string) *DomainRegistry {
	return &DomainRegistry{
		domains: map[string]struct{}{defaultDomain: {}},
	}
}

// Add регистрирует локальный домен.
func (r *DomainRegistry) Add(domain string) {
	r.domains[domain] = struct{}{}
}

// AddFromEmail регистрирует доменную часть адреса.
func (r *DomainRegistry) AddFromEmail(s string) {
	if idx := strings.Index(s, "@"); idx >= 0 && idx+1 < len(s) {
		r.Add(s[idx+1:])
	}
}

// Sorted возвращает домены в алфавитном порядке.
func (r *DomainRegistry) Sorted() []string {
	domains := make([]string, 0, len(r.domains))
	for domain := range r.domains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

// Len возвращает количество зарегистрированных доменов.
func (r *DomainRegistry) Len() int {
	return len(r.domains)
}

// UserRegistry хранит пользователей по их идентификатору.
type UserRegistry struct {
	users map[string]*User
}

// NewUserRegistry создает новый реестр пользователей.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{users: make(map[string]*User)}
}

// Get возвращает пользователя по идентификатору. При createIfMissing
// отсутствующий пользователь создается; иначе ссылка на отсутствующего
// пользователя означает нарушение целостности снимка и возвращается
// ErrUndefinedReference.
func (r *UserRegistry) Get(id string, createIfMissing bool) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	if !createIfMissing {
		return nil, fmt.Errorf("user %s: %w", id, ErrUndefinedReference)
	}
	u := &User{ID: id}
	r.users[id] = u
	return u, nil
}

// Sorted возвращает пользователей в порядке CompareUsers.
func (r *UserRegistry) Sorted() []*User {
	users := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return CompareUsers(users[i], users[j]) < 0
	})
	return users
}

// Len возвращает количество пользователей.
func (r *UserRegistry) Len() int {
	return len(r.users)
}

// GroupRegistry хранит группы по их идентификатору.
type GroupRegistry struct {
	groups map[string]*Group
}

// NewGroupRegistry создает новый реестр групп.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{groups: make(map[string]*Group)}
}

// Get возвращает группу по идентификатору. При createIfMissing
// отсутствующая группа создается; иначе возвращается nil: висячая
// ссылка на группу допустима, группа может быть определена позже в
// рамках той же загрузки.
func (r *GroupRegistry) Get(id string, createIfMissing bool) *Group {
	if g, ok := r.groups[id]; ok {
		return g
	}
	if !createIfMissing {
		return nil
	}
	g := &Group{ID: id}
	r.groups[id] = g
	return g
}

// Sorted возвращает группы в порядке CompareGroups.
func (r *GroupRegistry) Sorted() []*Group {
	groups := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return CompareGroups(groups[i], groups[j]) < 0
	})
	return groups
}

// Len возвращает количество групп.
func (r *GroupRegistry) Len() int {
	return len(r.groups)
}

// Registry представляет корневой агрегат маршрутного графа: по одному
// реестру каждого вида. Заполняется загрузчиком один раз за запуск,
// после чего используется только для чтения.
type Registry struct {
	DefaultDomain string
	Addresses     *AddressRegistry
	Domains       *DomainRegistry
	Users         *UserRegistry
	Groups        *GroupRegistry
}

// NewRegistry создает новый пустой реестр для домена по умолчанию.
func NewRegistry(defaultDomain string) *Registry {
	return &Registry{
		DefaultDomain: defaultDomain,
		Addresses:     NewAddressRegistry(defaultDomain),
		Domains:       NewDomainRegistry(defaultDomain),
		Users:         NewUserRegistry(),
		Groups:        NewGroupRegistry(),
	}
}
