package domain

import "time"

// LoadStats представляет итоги загрузки снимка данных.
type LoadStats struct {
	Users              int
	Groups             int
	Addresses          int
	Domains            int
	ExcludedForwards   int
	ExcludedRecipients int
	Cycles             int
}

// ResolvedEntity представляет пользователя или группу с разрешенной
// доставкой, готовую к выводу.
type ResolvedEntity struct {
	Label        string
	Addresses    []string
	EmailEnabled bool
	Delivery     Delivery
}

// Report представляет полную таблицу маршрутизации одного запуска.
type Report struct {
	RunID         string
	GeneratedAt   time.Time
	DefaultDomain string
	Domains       []string
	Users         []ResolvedEntity
	Groups        []ResolvedEntity
}
