package domain

import "context"

// UserRow представляет строку пользователя из снимка данных.
type UserRow struct {
	UserID   string
	Username string
}

// UserAliasRow представляет почтовый алиас пользователя.
type UserAliasRow struct {
	UserID string
	Alias  string
}

// UserForwardRow представляет настройку пересылки пользователя. Строки
// без пересылки источник не возвращает.
type UserForwardRow struct {
	UserID  string
	Forward string
}

// GroupAliasRow представляет почтовый алиас группы.
type GroupAliasRow struct {
	GroupID string
	Alias   string
}

// GroupRecipientRow представляет напрямую назначенного получателя группы.
type GroupRecipientRow struct {
	GroupID   string
	Recipient string
}

// GroupClosureRow представляет ребро развернутой иерархии групп с
// почтовыми алиасами: GroupID задает группу с алиасом, MemberGroupID
// ее действующую вложенную группу. Каждая группа с алиасом числится и
// собственной вложенной группой. Path хранит путь обхода, Cycle
// помечает ребро, замкнувшее цикл.
type GroupClosureRow struct {
	GroupID       string
	GroupName     string
	MemberGroupID string
	Path          []string
	Cycle         bool
}

// GroupMemberRow представляет прямое членство пользователя в группе.
type GroupMemberRow struct {
	GroupID string
	UserID  string
}

// DataSource определяет контракт источника снимка данных для загрузчика.
// Порядок строк внутри каждой выборки источник не гарантирует, кроме
// оговоренного в описании метода.
type DataSource interface {
	// Name возвращает имя источника для логов.
	Name() string
	// Users возвращает пользователей снимка.
	Users(ctx context.Context) ([]UserRow, error)
	// UserAliases возвращает почтовые алиасы пользователей.
	UserAliases(ctx context.Context) ([]UserAliasRow, error)
	// UserForwards возвращает настройки пересылки; строки с пустой
	// пересылкой исключаются источником.
	UserForwards(ctx context.Context) ([]UserForwardRow, error)
	// GroupAliases возвращает почтовые алиасы групп.
	GroupAliases(ctx context.Context) ([]GroupAliasRow, error)
	// GroupRecipients возвращает напрямую назначенных получателей групп.
	GroupRecipients(ctx context.Context) ([]GroupRecipientRow, error)
	// EmailGroupClosure возвращает развернутую иерархию групп с
	// почтовыми алиасами, упорядоченную по имени группы.
	EmailGroupClosure(ctx context.Context) ([]GroupClosureRow, error)
	// GroupMembers возвращает прямые членства пользователей в группах.
	GroupMembers(ctx context.Context) ([]GroupMemberRow, error)
}
