package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/config"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

// newTestRemote 使用 mux 构造上游并返回网关
func newTestRemote(t *testing.T, mux *http.ServeMux) *Remote {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewRemote(&config.GatewayConfig{
		Mode:     config.GatewayRemote,
		BaseURL:  srv.URL,
		APIToken: "upstream-token",
		Timeout:  2 * time.Second,
	}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestRemote_LoadReferenceData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/modules/m1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer upstream-token" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"unauthorized"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"module":{"id":"m1","title":"第一单元","course_id":"c1"}}}`)
	})
	mux.HandleFunc("/courses/c1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"c1","title":"Go 入门"}`)
	})
	mux.HandleFunc("/modules/m1/sections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"sections":[{"id":"s1","title":"作业区","type":"Assignment"},{"id":"s2","title":"阅读","type":"Reading"}]}`)
	})
	g := newTestRemote(t, mux)

	ref, err := g.LoadReferenceData(context.Background(), wizard.KindAssignment, wizard.Scope{CourseID: "c1", ModuleID: "m1"})
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if ref.CourseTitle != "Go 入门" || ref.ModuleTitle != "第一单元" {
		t.Errorf("父级标题不符: %+v", ref)
	}
	if len(ref.Sections) != 2 || ref.Sections[0].ModuleID != "m1" {
		t.Errorf("章节应补全 module_id: %+v", ref.Sections)
	}
}

func TestRemote_LoadReferenceData_FailureIsLoadError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/modules/m1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"message":"db down"}`)
	})
	g := newTestRemote(t, mux)

	ref, err := g.LoadReferenceData(context.Background(), wizard.KindQuiz, wizard.Scope{CourseID: "c1", ModuleID: "m1"})
	var lerr *wizard.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("期望 *LoadError，实际 %v", err)
	}
	if ref == nil || len(ref.Sections) != 0 {
		t.Error("失败时应返回空章节列表以便降级")
	}
}

func TestRemote_SubmitCreate(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/assignments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("期望 POST，实际 %s", r.Method)
		}
		if r.Header.Get("X-Actor-ID") != "u1" {
			t.Errorf("应携带操作人")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, `{"data":{"assignment":{"_id":"a42"}}}`)
	})
	g := newTestRemote(t, mux)

	id, err := g.SubmitEntity(context.Background(), wizard.KindAssignment, wizard.Submission{
		Mode:    wizard.ModeCreate,
		Scope:   wizard.Scope{CourseID: "c1", ModuleID: "m1"},
		ActorID: "u1",
		Draft: wizard.Draft{
			Title: "T", Description: "D", Duration: 60, SectionID: "s1", QuestionText: "Q?",
		},
	})
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if id != "a42" {
		t.Errorf("期望 a42，实际 %s", id)
	}
	if got["question_text"] != "Q?" || got["section_id"] != "s1" || got["duration"] != float64(60) {
		t.Errorf("请求体不符: %v", got)
	}
	if _, ok := got["instructions"]; ok {
		t.Error("作业请求体不应包含练习说明")
	}
}

func TestRemote_SubmitEditKeepsIDWhenBodyEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quizzes/q1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("期望 PUT，实际 %s", r.Method)
		}
		writeJSON(w, http.StatusOK, `{"data":{}}`)
	})
	g := newTestRemote(t, mux)

	id, err := g.SubmitEntity(context.Background(), wizard.KindQuiz, wizard.Submission{
		Mode:     wizard.ModeEdit,
		EntityID: "q1",
		Draft:    wizard.Draft{Title: "T", Description: "D", Duration: 10, SectionID: "s3"},
	})
	if err != nil || id != "q1" {
		t.Errorf("期望返回 q1，实际 %q, %v", id, err)
	}
}

func TestRemote_SubmitEditEmptyReply(t *testing.T) {
	cases := []struct {
		name  string
		reply func(w http.ResponseWriter)
	}{
		{"204", func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }},
		{"200 空响应体", func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/quizzes/q1", func(w http.ResponseWriter, r *http.Request) {
				tc.reply(w)
			})
			g := newTestRemote(t, mux)

			id, err := g.SubmitEntity(context.Background(), wizard.KindQuiz, wizard.Submission{
				Mode:     wizard.ModeEdit,
				EntityID: "q1",
				Draft:    wizard.Draft{Title: "T", Description: "D", Duration: 10, SectionID: "s3"},
			})
			if err != nil || id != "q1" {
				t.Errorf("期望返回 q1，实际 %q, %v", id, err)
			}
		})
	}
}

func TestRemote_SubmitCreateEmptyReplyFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	g := newTestRemote(t, mux)

	_, err := g.SubmitEntity(context.Background(), wizard.KindCourse, wizard.Submission{
		Mode:  wizard.ModeCreate,
		Draft: wizard.Draft{Title: "T", Description: "D"},
	})
	var serr *wizard.SubmitError
	if !errors.As(err, &serr) {
		t.Errorf("创建时无响应体应返回 *wizard.SubmitError，实际 %v", err)
	}
}

func TestRemote_SubmitErrorMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/exercises", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"标题已存在"}`)
	})
	mux.HandleFunc("/lessons", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	g := newTestRemote(t, mux)

	_, err := g.SubmitEntity(context.Background(), wizard.KindExercise, wizard.Submission{Mode: wizard.ModeCreate})
	var serr *wizard.SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("期望 *SubmitError，实际 %v", err)
	}
	if serr.UserMessage() != "标题已存在" {
		t.Errorf("应原样透出上游消息，实际 %q", serr.UserMessage())
	}

	_, err = g.SubmitEntity(context.Background(), wizard.KindLesson, wizard.Submission{Mode: wizard.ModeCreate})
	if !errors.As(err, &serr) {
		t.Fatalf("期望 *SubmitError，实际 %v", err)
	}
	if serr.UserMessage() != "保存失败，请稍后重试" {
		t.Errorf("无消息时应使用默认提示，实际 %q", serr.UserMessage())
	}
}

func TestRemote_LoadExistingResolvesScope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lessons/l1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"lesson":{"id":"l1","title":"导读","duration":5,"section_id":"s2","content":"..."}}`)
	})
	mux.HandleFunc("/sections/s2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"s2","module_id":"m1","type":"Reading"}`)
	})
	mux.HandleFunc("/modules/m1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"m1","course_id":"c1"}`)
	})
	g := newTestRemote(t, mux)

	ex, err := g.LoadExisting(context.Background(), wizard.KindLesson, "l1")
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if ex.Scope.ModuleID != "m1" || ex.Scope.CourseID != "c1" {
		t.Errorf("范围补全不符: %+v", ex.Scope)
	}
	if ex.Draft.Content != "..." || ex.Draft.Duration != 5 {
		t.Errorf("草稿内容不符: %+v", ex.Draft)
	}
}

func TestRemote_NotFound(t *testing.T) {
	g := newTestRemote(t, http.NewServeMux())
	_, err := g.GetCourse(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("期望 ErrNotFound，实际 %v", err)
	}
}

func TestPayload_SectionAndModule(t *testing.T) {
	sec := payload(wizard.KindSection, wizard.Submission{
		Scope: wizard.Scope{ModuleID: "m1"},
		Draft: wizard.Draft{Title: "测验区", SectionType: wizard.SectionQuiz},
	})
	if sec["type"] != "Quiz" || sec["module_id"] != "m1" {
		t.Errorf("章节请求体不符: %v", sec)
	}
	if _, ok := sec["duration"]; ok {
		t.Error("章节请求体不应包含时长")
	}

	mod := payload(wizard.KindModule, wizard.Submission{Scope: wizard.Scope{CourseID: "c1"}})
	if mod["course_id"] != "c1" {
		t.Errorf("模块请求体不符: %v", mod)
	}
}
