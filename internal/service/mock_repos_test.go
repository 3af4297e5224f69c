package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
	pkgerrors "campus-portal/backend/pkg/errors"
)

var errBoom = errors.New("boom")

func newMockRepository() (*repository.Repository, *mocks) {
	m := &mocks{
		users:      newMockUserRepo(),
		roles:      newMockRoleRepo(),
		depts:      newMockDepartmentRepo(),
		courses:    newMockCourseRepo(),
		events:     newMockEventRepo(),
		research:   newMockResearchRepo(),
		reviews:    &mockSyllabusRepo{},
		attendance: &mockAttendanceRepo{},
		timetable:  &mockTimetableRepo{},
	}
	m.courses.depts = m.depts
	m.depts.courses = m.courses
	return &repository.Repository{
		User:           m.users,
		Role:           m.roles,
		Department:     m.depts,
		Course:         m.courses,
		Event:          m.events,
		Research:       m.research,
		SyllabusReview: m.reviews,
		Attendance:     m.attendance,
		Timetable:      m.timetable,
	}, m
}

type mocks struct {
	users      *mockUserRepo
	roles      *mockRoleRepo
	depts      *mockDepartmentRepo
	courses    *mockCourseRepo
	events     *mockEventRepo
	research   *mockResearchRepo
	reviews    *mockSyllabusRepo
	attendance *mockAttendanceRepo
	timetable  *mockTimetableRepo
}

func nopLogger() *zap.Logger { return zap.NewNop() }

func deletedNow() gorm.DeletedAt {
	return gorm.DeletedAt{Time: time.Now(), Valid: true}
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok && !u.IsDeleted() {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && !u.IsDeleted() {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id string, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.EmailVerified = true
	u.VerifiedAt = &at
	return nil
}

func (m *mockUserRepo) TouchSignIn(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastSignInAt = &at
	}
	return nil
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, _ *repository.UserListFilters, _, _ int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range m.users {
		if !u.IsDeleted() {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if u, ok := m.users[id]; ok {
		u.DeletedAt = deletedNow()
		u.DeletedBy = &deletedBy
	}
	return nil
}

// ── Mock RoleRepository ──

type mockRoleRepo struct {
	roles map[string]*model.UserRole
	err   error
	calls int
}

func newMockRoleRepo() *mockRoleRepo {
	return &mockRoleRepo{roles: make(map[string]*model.UserRole)}
}

func (m *mockRoleRepo) GetByUserID(_ context.Context, userID string) (*model.UserRole, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.roles[userID]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleRepo) Upsert(_ context.Context, role *model.UserRole) error {
	m.roles[role.UserID] = role
	return nil
}

func (m *mockRoleRepo) Delete(_ context.Context, userID string) error {
	delete(m.roles, userID)
	return nil
}

// ── Mock DepartmentRepository ──

type mockDepartmentRepo struct {
	depts   map[string]*model.Department
	courses *mockCourseRepo
	seq     int
}

func newMockDepartmentRepo() *mockDepartmentRepo {
	return &mockDepartmentRepo{depts: make(map[string]*model.Department)}
}

func (m *mockDepartmentRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		m.seq++
		dept.DepartmentID = fmt.Sprintf("dept-%d", m.seq)
	}
	dept.Version = 1
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok && !d.IsDeleted() {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDepartmentRepo) GetByCode(_ context.Context, code string) (*model.Department, error) {
	for _, d := range m.depts {
		if d.Code == code && !d.IsDeleted() {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	var out []model.Department
	for _, d := range m.depts {
		if !d.IsDeleted() {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockDepartmentRepo) Update(_ context.Context, dept *model.Department) error {
	cur, ok := m.depts[dept.DepartmentID]
	if !ok || cur.Version != dept.Version {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version++
	cp := *dept
	m.depts[dept.DepartmentID] = &cp
	return nil
}

func (m *mockDepartmentRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if d, ok := m.depts[id]; ok {
		d.DeletedAt = deletedNow()
		d.DeletedBy = &deletedBy
	}
	return nil
}

func (m *mockDepartmentRepo) CountCourses(_ context.Context, departmentID string) (int64, error) {
	var n int64
	if m.courses != nil {
		for _, c := range m.courses.courses {
			if c.DepartmentID == departmentID && !c.IsDeleted() {
				n++
			}
		}
	}
	return n, nil
}

func (m *mockDepartmentRepo) BatchCountCourses(ctx context.Context, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	for _, id := range ids {
		out[id], _ = m.CountCourses(ctx, id)
	}
	return out, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	depts   *mockDepartmentRepo
	seq     int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		m.seq++
		course.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := m.courses[id]
	if !ok || c.IsDeleted() {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	if m.depts != nil {
		if d, ok := m.depts.depts[c.DepartmentID]; ok {
			cp.Department = d
		}
	}
	return &cp, nil
}

func (m *mockCourseRepo) GetByCode(_ context.Context, departmentID, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.DepartmentID == departmentID && c.Code == code && !c.IsDeleted() {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context, f *repository.CourseListFilters) ([]model.Course, error) {
	var out []model.Course
	for _, c := range m.courses {
		if c.IsDeleted() || (f.DepartmentID != "" && c.DepartmentID != f.DepartmentID) || (f.Semester != 0 && c.Semester != f.Semester) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	cp := *course
	m.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if c, ok := m.courses[id]; ok {
		c.DeletedAt = deletedNow()
		c.DeletedBy = &deletedBy
	}
	return nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events    map[string]*model.Event
	seq       int
	createErr error
	lastList  *repository.EventListFilters
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) Create(_ context.Context, e *model.Event) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	e.EventID = fmt.Sprintf("event-%d", m.seq)
	e.Version = 1
	m.events[e.EventID] = e
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok || e.IsDeleted() {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEventRepo) GetByIDUnscoped(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEventRepo) List(_ context.Context, f *repository.EventListFilters, _, _ int) ([]model.Event, int64, error) {
	m.lastList = f
	var out []model.Event
	for _, e := range m.events {
		if e.IsDeleted() || (!f.IncludeUnpublished && !e.IsPublished) {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (m *mockEventRepo) ListDeleted(_ context.Context, _, _ int) ([]model.Event, int64, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.IsDeleted() {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockEventRepo) Update(_ context.Context, e *model.Event) error {
	cur, ok := m.events[e.EventID]
	if !ok || cur.IsDeleted() || cur.Version != e.Version {
		return pkgerrors.ErrOptimisticLock
	}
	e.Version++
	cp := *e
	m.events[e.EventID] = &cp
	return nil
}

func (m *mockEventRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	if e, ok := m.events[id]; ok && !e.IsDeleted() {
		e.DeletedAt = deletedNow()
		e.DeletedBy = &deletedBy
	}
	return nil
}

func (m *mockEventRepo) Restore(_ context.Context, id string, restoredBy string) error {
	if e, ok := m.events[id]; ok && e.IsDeleted() {
		e.DeletedAt = gorm.DeletedAt{}
		e.DeletedBy = nil
		e.UpdatedBy = &restoredBy
	}
	return nil
}

func (m *mockEventRepo) Purge(_ context.Context, id string) error {
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) MediaURLs(_ context.Context) ([]string, error) {
	var out []string
	for _, e := range m.events {
		out = append(out, e.ImageURLs...)
		out = append(out, e.BrochureURLs...)
	}
	return out, nil
}

// ── Mock ResearchRepository ──

type mockResearchRepo struct {
	subs     map[string]*model.ResearchSubmission
	seq      int
	lastList *repository.ResearchListFilters
}

func newMockResearchRepo() *mockResearchRepo {
	return &mockResearchRepo{subs: make(map[string]*model.ResearchSubmission)}
}

func (m *mockResearchRepo) Create(_ context.Context, sub *model.ResearchSubmission) error {
	m.seq++
	sub.ResearchID = fmt.Sprintf("research-%d", m.seq)
	m.subs[sub.ResearchID] = sub
	return nil
}

func (m *mockResearchRepo) GetByID(_ context.Context, id string) (*model.ResearchSubmission, error) {
	s, ok := m.subs[id]
	if !ok || s.IsDeleted() {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockResearchRepo) GetByIDUnscoped(_ context.Context, id string) (*model.ResearchSubmission, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockResearchRepo) List(_ context.Context, f *repository.ResearchListFilters, _, _ int) ([]model.ResearchSubmission, int64, error) {
	m.lastList = f
	var out []model.ResearchSubmission
	for _, s := range m.subs {
		if s.IsDeleted() {
			continue
		}
		if len(f.Statuses) > 0 && !containsString(f.Statuses, s.ApprovalStatus) {
			continue
		}
		if f.SubmittedBy != "" && s.SubmittedBy != f.SubmittedBy {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (m *mockResearchRepo) UpdateReview(_ context.Context, id, status, note, reviewerID string) error {
	s, ok := m.subs[id]
	if !ok || s.IsDeleted() {
		return gorm.ErrRecordNotFound
	}
	s.ApprovalStatus = status
	s.ReviewNote = note
	s.ReviewedBy = &reviewerID
	return nil
}

func (m *mockResearchRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	if s, ok := m.subs[id]; ok && !s.IsDeleted() {
		s.DeletedAt = deletedNow()
		s.DeletedBy = &deletedBy
	}
	return nil
}

func (m *mockResearchRepo) Restore(_ context.Context, id string, _ string) error {
	if s, ok := m.subs[id]; ok {
		s.DeletedAt = gorm.DeletedAt{}
		s.DeletedBy = nil
	}
	return nil
}

func (m *mockResearchRepo) Purge(_ context.Context, id string) error {
	delete(m.subs, id)
	return nil
}

func (m *mockResearchRepo) MediaURLs(_ context.Context) ([]string, error) {
	var out []string
	for _, s := range m.subs {
		out = append(out, s.DocumentURLs...)
		out = append(out, s.ImageURLs...)
	}
	return out, nil
}

// ── Mock SyllabusReviewRepository ──

type mockSyllabusRepo struct {
	reviews []model.SyllabusReview
}

func (m *mockSyllabusRepo) Create(_ context.Context, r *model.SyllabusReview) error {
	r.ReviewID = fmt.Sprintf("review-%d", len(m.reviews)+1)
	r.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *mockSyllabusRepo) match(r model.SyllabusReview, f *repository.SyllabusReviewFilters) bool {
	return (f.Branch == "" || r.Branch == f.Branch) &&
		(f.Semester == 0 || r.Semester == f.Semester) &&
		(f.Section == "" || r.Section == f.Section) &&
		(f.Teacher == "" || strings.Contains(strings.ToLower(r.TeacherName), strings.ToLower(f.Teacher)))
}

func (m *mockSyllabusRepo) List(_ context.Context, f *repository.SyllabusReviewFilters, _, _ int) ([]model.SyllabusReview, int64, error) {
	var out []model.SyllabusReview
	for _, r := range m.reviews {
		if m.match(r, f) {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockSyllabusRepo) Summary(_ context.Context, f *repository.SyllabusReviewFilters) ([]model.SyllabusReviewSummary, error) {
	idx := map[string]int{}
	var out []model.SyllabusReviewSummary
	for _, r := range m.reviews {
		if !m.match(r, f) {
			continue
		}
		k := r.TeacherName + "|" + r.Subject
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, model.SyllabusReviewSummary{TeacherName: r.TeacherName, Subject: r.Subject})
		}
		s := &out[i]
		n := float64(s.Responses)
		s.AvgOverall = (s.AvgOverall*n + float64(r.Overall)) / (n + 1)
		s.AvgCoverage = (s.AvgCoverage*n + float64(r.Coverage)) / (n + 1)
		s.Responses++
	}
	return out, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records     []model.AttendanceRecord
	lastFilters *repository.AttendanceFilters
}

func (m *mockAttendanceRepo) BatchUpsert(_ context.Context, records []model.AttendanceRecord) error {
	for _, rec := range records {
		replaced := false
		for i, cur := range m.records {
			if cur.StudentRoll == rec.StudentRoll && cur.CourseCode == rec.CourseCode && cur.ClassDate.Equal(rec.ClassDate) {
				m.records[i].Status = rec.Status
				replaced = true
			}
		}
		if !replaced {
			m.records = append(m.records, rec)
		}
	}
	return nil
}

func (m *mockAttendanceRepo) List(_ context.Context, f *repository.AttendanceFilters, _, _ int) ([]model.AttendanceRecord, int64, error) {
	m.lastFilters = f
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if f.StudentRoll != "" && r.StudentRoll != f.StudentRoll {
			continue
		}
		if f.CourseCode != "" && r.CourseCode != f.CourseCode {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, f *repository.AttendanceFilters) ([]model.AttendanceSummary, error) {
	records, _, _ := m.List(ctx, f, 0, 0)
	idx := map[string]int{}
	var out []model.AttendanceSummary
	for _, r := range records {
		k := r.StudentRoll + "|" + r.CourseCode
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, model.AttendanceSummary{StudentRoll: r.StudentRoll, StudentName: r.StudentName, CourseCode: r.CourseCode})
		}
		s := &out[i]
		s.Total++
		switch r.Status {
		case model.AttendancePresent:
			s.Present++
		case model.AttendanceLate:
			s.Late++
		default:
			s.Absent++
		}
		s.Percentage = 100 * float64(s.Present+s.Late) / float64(s.Total)
	}
	return out, nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	entries map[repository.Section][]model.TimetableEntry
}

func (m *mockTimetableRepo) ListBySection(_ context.Context, s repository.Section) ([]model.TimetableEntry, error) {
	return m.entries[s], nil
}

func (m *mockTimetableRepo) ReplaceBySection(_ context.Context, s repository.Section, entries []model.TimetableEntry) error {
	if m.entries == nil {
		m.entries = make(map[repository.Section][]model.TimetableEntry)
	}
	m.entries[s] = entries
	return nil
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
