package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/gateway"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "test-user-" + user.Email
	}
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl > 0 {
		m.revoked[jti] = ttl
	}
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── Mock Gateway ──

type mockGateway struct {
	courses    map[string]gateway.CourseSummary
	modules    map[string][]gateway.ModuleSummary // key: course_id
	sections   map[string][]wizard.Section        // key: module_id
	activities map[string][]gateway.ActivitySummary
	existing   map[string]*wizard.Existing // key: kind/id

	loadErr   error
	submitErr error
	onSubmit  func()
	submitted []wizard.Submission
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		courses: map[string]gateway.CourseSummary{
			"c1": {ID: "c1", Title: "Go 入门", Description: "从零开始"},
		},
		modules: map[string][]gateway.ModuleSummary{
			"c1": {{ID: "m1", CourseID: "c1", Title: "第一单元", OrderIndex: 1}},
		},
		sections: map[string][]wizard.Section{
			"m1": {
				{ID: "s-read", Title: "阅读材料", Type: wizard.SectionReading, ModuleID: "m1"},
				{ID: "s-asg", Title: "课后作业", Type: wizard.SectionAssignment, ModuleID: "m1"},
				{ID: "s-quiz", Title: "单元测验", Type: wizard.SectionQuiz, ModuleID: "m1"},
			},
		},
		activities: map[string][]gateway.ActivitySummary{},
		existing:   map[string]*wizard.Existing{},
	}
}

func (m *mockGateway) ListCourses(_ context.Context) ([]gateway.CourseSummary, error) {
	out := make([]gateway.CourseSummary, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockGateway) GetCourse(_ context.Context, id string) (*gateway.CourseSummary, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, gateway.ErrNotFound
}

func (m *mockGateway) ListModules(_ context.Context, courseID string) ([]gateway.ModuleSummary, error) {
	return m.modules[courseID], nil
}

func (m *mockGateway) ListSections(_ context.Context, moduleID string, types []wizard.SectionType) ([]wizard.Section, error) {
	var out []wizard.Section
	for _, s := range m.sections[moduleID] {
		if len(types) == 0 {
			out = append(out, s)
			continue
		}
		for _, t := range types {
			if s.Type == t {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *mockGateway) ListActivities(_ context.Context, sectionID string) ([]gateway.ActivitySummary, error) {
	return m.activities[sectionID], nil
}

func (m *mockGateway) LoadReferenceData(ctx context.Context, _ wizard.Kind, scope wizard.Scope) (*wizard.ReferenceData, error) {
	ref := &wizard.ReferenceData{Sections: []wizard.Section{}}
	if m.loadErr != nil {
		return ref, &wizard.LoadError{Err: m.loadErr}
	}
	if c, ok := m.courses[scope.CourseID]; ok {
		ref.CourseTitle = c.Title
	}
	for _, mods := range m.modules {
		for _, mod := range mods {
			if mod.ID == scope.ModuleID {
				ref.ModuleTitle = mod.Title
			}
		}
	}
	ref.Sections = append(ref.Sections, m.sections[scope.ModuleID]...)
	return ref, nil
}

func (m *mockGateway) LoadExisting(_ context.Context, kind wizard.Kind, id string) (*wizard.Existing, error) {
	if ex, ok := m.existing[string(kind)+"/"+id]; ok {
		return ex, nil
	}
	return nil, &wizard.LoadError{Err: gateway.ErrNotFound}
}

func (m *mockGateway) SubmitEntity(_ context.Context, kind wizard.Kind, sub wizard.Submission) (string, error) {
	if m.onSubmit != nil {
		m.onSubmit()
	}
	m.submitted = append(m.submitted, sub)
	if m.submitErr != nil {
		return "", m.submitErr
	}
	if sub.Mode == wizard.ModeEdit {
		return sub.EntityID, nil
	}
	return string(kind) + "-new", nil
}

var errUpstreamDown = errors.New("upstream down")
