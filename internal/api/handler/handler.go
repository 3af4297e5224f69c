package handler

import (
	"campus-portal/backend/config"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/pkg/storage"
)

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Catalog   *CatalogHandler
	Event     *EventHandler
	Research  *ResearchHandler
	Academics *AcademicsHandler
	Storage   *StorageHandler
	Health    *HealthHandler
}

// NewHandler wires handlers to their services. checks feeds the health endpoint.
func NewHandler(svc *service.Service, cfg *config.Config, store *storage.Store, checks map[string]Pinger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth, svc.Roles, &cfg.Auth, &cfg.Mail),
		User:      NewUserHandler(svc.User),
		Catalog:   NewCatalogHandler(svc.Department, svc.Course),
		Event:     NewEventHandler(svc.Event),
		Research:  NewResearchHandler(svc.Research),
		Academics: NewAcademicsHandler(svc.Syllabus, svc.Attendance, svc.Timetable),
		Storage:   NewStorageHandler(store),
		Health:    NewHealthHandler(checks),
	}
}
