package domain

import "errors"

// Domain errors (для бизнес-логики)
var (
	// ErrInvalidAddress: строка не является корректным почтовым адресом.
	ErrInvalidAddress = errors.New("invalid email address")

	// ErrUndefinedReference: граф ссылается на адрес или пользователя,
	// который нигде не определен. Обычно это значит, что снимок данных
	// загружен не полностью: прогон надо прервать и повторить позже.
	ErrUndefinedReference = errors.New("referenced entity is not defined")

	// ErrGroupIntegrity: в вычисленный состав группы попал пользователь
	// без username. Прогон прерывается, участника молча не отбрасываем.
	ErrGroupIntegrity = errors.New("group membership includes invalid users")

	// ErrInvalidStateAccess: запрошен производный атрибут, который у
	// сущности не определен. Это ошибка контракта вызывающего кода,
	// а не данных.
	ErrInvalidStateAccess = errors.New("requested attribute is not defined for this entity")
)

// Sysexits-коды процесса для ошибок на границе прогона.
const (
	ExitOK        = 0
	ExitDataErr   = 65 // EX_DATAERR
	ExitSoftware  = 70 // EX_SOFTWARE
	ExitCantCreat = 73 // EX_CANTCREAT
	ExitTempFail  = 75 // EX_TEMPFAIL
	ExitConfig    = 78 // EX_CONFIG
)

// Маппинг domain ошибок в коды завершения процесса
var ExitCodeMapping = map[error]int{
	ErrInvalidAddress:     ExitDataErr,
	ErrGroupIntegrity:     ExitDataErr,
	ErrUndefinedReference: ExitTempFail,
	ErrInvalidStateAccess: ExitSoftware,
}

// ToExitCode преобразует domain ошибку в код завершения процесса.
// Ошибки приходят обернутыми, поэтому сопоставление идет через errors.Is.
func ToExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for sentinel, code := range ExitCodeMapping {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ExitSoftware
}
