package domain

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// EmailAddress представляет неизменяемое значение почтового адреса.
// Address хранит полный ключ вида local@domain, по нему же выполняются
// сравнение на равенство и поиск в реестре.
type EmailAddress struct {
	Address         string
	Username        string
	Domainname      string
	InDefaultDomain bool
	External        bool
}

// parseAddress нормализует и классифицирует строку адреса относительно
// домена по умолчанию. Голая локальная часть дополняется доменом по
// умолчанию. Адрес External, если домен не совпадает с доменом по
// умолчанию и не является его поддоменом.
func parseAddress(s, defaultDomain string) (*EmailAddress, error) {
	if s == "" || strings.TrimSpace(s) != s {
		return nil, fmt.Errorf("address %q: %w", s, ErrInvalidAddress)
	}

	full := s
	if !strings.Contains(full, "@") {
		full = full + "@" + defaultDomain
	}

	parts := strings.Split(full, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("address %q: %w", s, ErrInvalidAddress)
	}

	for _, r := range full {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return nil, fmt.Errorf("address %q: %w", s, ErrInvalidAddress)
		}
	}

	username, domainname := parts[0], parts[1]
	inDefault := domainname == defaultDomain
	subdomain := strings.HasSuffix(domainname, "."+defaultDomain)

	return &EmailAddress{
		Address:         full,
		Username:        username,
		Domainname:      domainname,
		InDefaultDomain: inDefault,
		External:        !inDefault && !subdomain,
	}, nil
}

// String возвращает полный адрес.
func (a *EmailAddress) String() string {
	return a.Address
}

// CompareAddresses задает детерминированный порядок вывода адресов:
// сначала адреса в домене по умолчанию, затем остальные внутренние,
// затем внешние; внутри уровня по домену, прочитанному справа налево
// (TLD первым), затем по локальной части.
func CompareAddresses(a, b *EmailAddress) int {
	if a.InDefaultDomain != b.InDefaultDomain {
		if a.InDefaultDomain {
			return -1
		}
		return 1
	}
	if a.External != b.External {
		if b.External {
			return -1
		}
		return 1
	}

	if c := compareReversedLabels(a.Domainname, b.Domainname); c != 0 {
		return c
	}
	if c := strings.Compare(a.Username, b.Username); c != 0 {
		return c
	}
	return strings.Compare(a.Address, b.Address)
}

// SortAddresses сортирует адреса на месте по порядку CompareAddresses.
func SortAddresses(addrs []*EmailAddress) {
	sort.SliceStable(addrs, func(i, j int) bool {
		return CompareAddresses(addrs[i], addrs[j]) < 0
	})
}

// compareReversedLabels сравнивает домены по меткам в обратном порядке:
// example.com и mail.example.com сравниваются как (com, example) и
// (com, example, mail).
func compareReversedLabels(a, b string) int {
	la := strings.Split(a, ".")
	lb := strings.Split(b, ".")
	for i, j := len(la)-1, len(lb)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if c := strings.Compare(la[i], lb[j]); c != 0 {
			return c
		}
	}
	switch {
	case len(la) < len(lb):
		return -1
	case len(la) > len(lb):
		return 1
	default:
		return 0
	}
}
