package domain

import "strings"

// Delivery представляет результат разрешения доставки для пользователя
// или группы. Значение вычисляется заново при каждом запросе и нигде не
// кешируется: это чистая функция от текущего состояния графа.
type Delivery struct {
	// Recipients хранит упорядоченный список конечных получателей;
	// nil, если маршрут не установлен.
	Recipients []*EmailAddress
	// Comment содержит человекочитаемое пояснение результата.
	Comment string
	// Warnings перечисляет предупреждения о ненадежной или неполной
	// маршрутизации; nil, если предупреждений нет.
	Warnings []string
	// Defined показывает, установлен ли маршрут вообще.
	Defined bool
}

// maxListedEntities ограничивает число сущностей, перечисляемых в
// сообщениях об ошибках и предупреждениях.
const maxListedEntities = 5

// truncateEntityList собирает список имен для вывода, обрезая его до
// maxListedEntities элементов с маркером многоточия в конце.
func truncateEntityList(names []string) string {
	if len(names) > maxListedEntities {
		names = append(names[:maxListedEntities:maxListedEntities], "...")
	}
	return strings.Join(names, ", ")
}
