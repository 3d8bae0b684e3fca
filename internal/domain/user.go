package domain

import "fmt"

// User представляет сущность пользователя в маршрутном графе.
// Username опционален: пока загрузчик его не установил, пользователь
// считается неполностью определенным. Addresses хранит адреса для
// вывода, на маршрутизацию они не влияют.
type User struct {
	ID        string
	Username  string
	Addresses []*EmailAddress

	// emailForward хранит множество адресов пересылки; nil, пока
	// загрузчик не добавил ни одного.
	emailForward map[string]*EmailAddress
}

// Valid проверяет, что пользователь полностью определен (есть username).
func (u *User) Valid() bool {
	return u.Username != ""
}

// AddAddress добавляет адрес в список отображаемых адресов пользователя.
func (u *User) AddAddress(addr *EmailAddress) {
	u.Addresses = append(u.Addresses, addr)
}

// AddEmailForward добавляет адрес пересылки. Повторное добавление того
// же адреса не дает дубликата.
func (u *User) AddEmailForward(addr *EmailAddress) {
	if u.emailForward == nil {
		u.emailForward = make(map[string]*EmailAddress)
	}
	u.emailForward[addr.Address] = addr
}

// HasEmailDelivery проверяет, что у пользователя есть хотя бы один
// адрес пересылки.
func (u *User) HasEmailDelivery() bool {
	return len(u.emailForward) > 0
}

// ExternalForward проверяет, уходит ли хотя бы одна пересылка на
// внешний адрес.
func (u *User) ExternalForward() bool {
	for _, addr := range u.emailForward {
		if addr.External {
			return true
		}
	}
	return false
}

// ForwardAddresses возвращает адреса пересылки в порядке CompareAddresses.
// Если пересылка у пользователя не определена, возвращает
// ErrInvalidStateAccess: вызывающий код обязан сначала проверить
// HasEmailDelivery.
func (u *User) ForwardAddresses() ([]*EmailAddress, error) {
	if u.emailForward == nil {
		return nil, fmt.Errorf("%s: email forward: %w", u, ErrInvalidStateAccess)
	}
	addrs := make([]*EmailAddress, 0, len(u.emailForward))
	for _, addr := range u.emailForward {
		addrs = append(addrs, addr)
	}
	SortAddresses(addrs)
	return addrs, nil
}

// Delivery разрешает доставку для пользователя: при наличии пересылки
// маршрут установлен и получателями становится отсортированное
// множество адресов пересылки, иначе маршрут не установлен.
func (u *User) Delivery() Delivery {
	if !u.HasEmailDelivery() {
		return Delivery{
			Comment: fmt.Sprintf("%s has no delivery address", u),
		}
	}

	recipients, _ := u.ForwardAddresses()
	return Delivery{
		Recipients: recipients,
		Comment:    u.String(),
		Defined:    true,
	}
}

// String возвращает отображаемое имя пользователя для логов,
// предупреждений и комментариев.
func (u *User) String() string {
	if u.Username == "" {
		return fmt.Sprintf("user %s", u.ID)
	}
	return fmt.Sprintf("user %s (%s)", u.ID, u.Username)
}

// CompareUsers задает «дружелюбный» порядок вывода пользователей:
// по username (пустой сортируется первым), затем по ID.
func CompareUsers(a, b *User) int {
	if a.Username != b.Username {
		if a.Username < b.Username {
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
