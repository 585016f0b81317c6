package handler

import "school-manager/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Roster    *RosterHandler
	Editor    *ScheduleEditorHandler
	Published *PublishedHandler
	Export    *ExportHandler
	Health    *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, checks ...HealthCheck) *Handler {
	return &Handler{
		Roster:    NewRosterHandler(svc.Roster),
		Editor:    NewScheduleEditorHandler(svc.Editor),
		Published: NewPublishedHandler(svc.View),
		Export:    NewExportHandler(svc.Export),
		Health:    NewHealthHandler(checks...),
	}
}
