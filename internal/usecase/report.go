package usecase

import (
	"time"

	"github.com/google/uuid"

	"mail-routing-service/internal/domain"
)

// ReportUseCase реализует построение таблицы маршрутизации.
type ReportUseCase struct{}

// NewReportUseCase создает новый экземпляр ReportUseCase.
func NewReportUseCase() domain.ReportUseCase {
	return &ReportUseCase{}
}

// BuildReport строит полную таблицу маршрутизации по загруженному
// реестру. Ошибка разрешения любой группы прерывает построение:
// частичная таблица не выводится.
func (uc *ReportUseCase) BuildReport(registry *domain.Registry) (*domain.Report, error) {
	report := &domain.Report{
		RunID:         uuid.New().String(),
		GeneratedAt:   time.Now(),
		DefaultDomain: registry.DefaultDomain,
		Domains:       registry.Domains.Sorted(),
	}

	for _, user := range registry.Users.Sorted() {
		report.Users = append(report.Users, domain.ResolvedEntity{
			Label:        user.String(),
			Addresses:    addressStrings(user.Addresses),
			EmailEnabled: true,
			Delivery:     user.Delivery(),
		})
	}

	for _, group := range registry.Groups.Sorted() {
		delivery, err := group.Delivery()
		if err != nil {
			return nil, err
		}
		report.Groups = append(report.Groups, domain.ResolvedEntity{
			Label:        group.String(),
			Addresses:    addressStrings(group.Addresses),
			EmailEnabled: group.EmailEnabled(),
			Delivery:     delivery,
		})
	}

	return report, nil
}

func addressStrings(addrs []*domain.EmailAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.String())
	}
	return out
}
