package service

import (
	"go.uber.org/zap"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/repository"
	"campus-portal/backend/pkg/jwt"
	"campus-portal/backend/pkg/redis"
	"campus-portal/backend/pkg/storage"
)

// Service aggregates every service.
type Service struct {
	Auth       AuthService
	Roles      RoleResolver
	User       UserService
	Department DepartmentService
	Course     CourseService
	Event      EventService
	Research   ResearchService
	Syllabus   SyllabusService
	Attendance AttendanceService
	Timetable  TimetableService
}

// Deps are the collaborators shared by the services. Redis may be nil, in which case token
// revocation is skipped.
type Deps struct {
	Config *config.Config
	Repo   *repository.Repository
	JWT    *jwt.Manager
	Redis  *redis.Client
	Store  *storage.Store
	Mailer Mailer
	Logger *zap.Logger
}

// NewService builds the aggregate.
func NewService(d Deps) *Service {
	// keep the interface nil when redis is off, a typed nil pointer would not compare equal
	var blacklist TokenBlacklist
	if d.Redis != nil {
		blacklist = d.Redis
	}
	mailer := d.Mailer
	if mailer == nil {
		mailer = NewConsoleMailer(&d.Config.Mail, d.Logger)
	}

	roles := NewRoleResolver(d.Repo.Role, &d.Config.Auth, d.Logger)
	return &Service{
		Auth:       NewAuthService(&d.Config.Auth, &d.Config.Mail, d.Repo, d.JWT, blacklist, roles, mailer, d.Logger),
		Roles:      roles,
		User:       NewUserService(d.Repo, roles, d.Logger),
		Department: NewDepartmentService(d.Repo, d.Logger),
		Course:     NewCourseService(d.Repo, d.Logger),
		Event:      NewEventService(&d.Config.Auth, d.Repo, d.Store.Events(), d.Logger),
		Research:   NewResearchService(&d.Config.Auth, d.Repo, d.Store.Research(), d.Logger),
		Syllabus:   NewSyllabusService(d.Repo, d.Logger),
		Attendance: NewAttendanceService(d.Repo, d.Logger),
		Timetable:  NewTimetableService(d.Repo, timetableLocation(d.Config.Database.Timezone, d.Logger), d.Logger),
	}
}
