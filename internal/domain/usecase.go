package domain

import "context"

// LoaderUseCase определяет бизнес-логику загрузки маршрутного графа из
// снимка данных.
type LoaderUseCase interface {
	Load(ctx context.Context, registry *Registry) (*LoadStats, error)
}

// ReportUseCase определяет бизнес-логику построения таблицы маршрутизации
// по загруженному графу.
type ReportUseCase interface {
	BuildReport(registry *Registry) (*Report, error)
}
