package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/resume"
)

func (e *testEnv) createResume(token, title string) resume.Resume {
	e.t.Helper()
	w := e.do(http.MethodPost, "/resumes/create", token, gin.H{"title": title})
	if w.Code != http.StatusCreated {
		e.t.Fatalf("create resume: %d %s", w.Code, w.Body.String())
	}
	return decode[resumeEnvelope](e.t, w).Resume
}

func TestCreateResumeDefaults(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup("c@example.com")

	created := env.createResume(token, "")
	if created.UserID != userID || created.Title != resume.DefaultTitle ||
		created.Template != resume.TemplateClassic || created.AccentColor != "#3b82f6" || created.Public {
		t.Fatalf("unexpected defaults: %+v", created)
	}
	if len(created.Skills) != 0 || len(created.Experience) != 0 {
		t.Fatalf("expected empty lists: %+v", created)
	}

	w := env.do(http.MethodPost, "/resumes/create", "", gin.H{"title": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestGetResumeIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.signup("owner@example.com")
	_, stranger := env.signup("stranger@example.com")
	doc := env.createResume(owner, "Mine")

	if w := env.do(http.MethodGet, "/resumes/get/"+doc.ID, owner, nil); w.Code != http.StatusOK {
		t.Fatalf("owner read: %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/resumes/get/"+doc.ID, stranger, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign read: expected 404, got %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/resumes/get/missing", owner, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing read: expected 404, got %d", w.Code)
	}
}

func TestPublicResumeGating(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("pub@example.com")
	doc := env.createResume(token, "Share me")

	if w := env.do(http.MethodGet, "/resumes/public/"+doc.ID, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("private resume exposed: %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/resumes/public/"+doc.ID+"/view", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("private resume view exposed: %d", w.Code)
	}

	w := env.do(http.MethodPut, "/resumes/update", token, gin.H{"resumeId": doc.ID, "resumeData": gin.H{"public": true}})
	if w.Code != http.StatusOK {
		t.Fatalf("publish: %d %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/resumes/public/"+doc.ID, "", nil)
	if w.Code != http.StatusOK || decode[resumeEnvelope](t, w).Resume.ID != doc.ID {
		t.Fatalf("public read: %d %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/resumes/public/"+doc.ID+"/view", "", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("public view: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestUpdateResumeOverwritesPresentKeysOnly(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("u@example.com")
	doc := env.createResume(token, "Original")

	w := env.do(http.MethodPut, "/resumes/update", token, gin.H{
		"resumeId": doc.ID,
		"resumeData": gin.H{
			"professional_summary": "Builds things",
			"skills":               []string{"Go", "SQL"},
			"personal_info":        gin.H{"full_name": "Ada", "email": "ada@example.com"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	// 第二次只提交 personal_info，整体替换，不做深合并。
	w = env.do(http.MethodPut, "/resumes/update", token, gin.H{
		"resumeId":   doc.ID,
		"resumeData": `{"personal_info":{"full_name":"Ada L"},"_id":"ignored","userId":"ignored"}`,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update with string payload: %d %s", w.Code, w.Body.String())
	}

	got := decode[resumeEnvelope](t, w).Resume
	if got.ID != doc.ID || got.Title != "Original" || got.ProfessionalSummary != "Builds things" {
		t.Fatalf("absent keys were not preserved: %+v", got)
	}
	if len(got.Skills) != 2 || got.Skills[1] != "SQL" {
		t.Fatalf("skills lost: %+v", got.Skills)
	}
	if got.PersonalInfo.FullName != "Ada L" || got.PersonalInfo.Email != "" {
		t.Fatalf("personal_info should be replaced wholesale: %+v", got.PersonalInfo)
	}
}

func TestUpdateResumeRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("bad@example.com")
	_, other := env.signup("bad2@example.com")
	doc := env.createResume(token, "")

	cases := []struct {
		name   string
		token  string
		body   gin.H
		status int
	}{
		{"unknown template", token, gin.H{"resumeId": doc.ID, "resumeData": gin.H{"template": "glossy"}}, http.StatusBadRequest},
		{"bad accent", token, gin.H{"resumeId": doc.ID, "resumeData": gin.H{"accent_color": "blue"}}, http.StatusBadRequest},
		{"missing id", token, gin.H{"resumeData": gin.H{"title": "x"}}, http.StatusBadRequest},
		{"malformed data", token, gin.H{"resumeId": doc.ID, "resumeData": `{"title":`}, http.StatusBadRequest},
		{"foreign owner", other, gin.H{"resumeId": doc.ID, "resumeData": gin.H{"title": "hijack"}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := env.do(http.MethodPut, "/resumes/update", tc.token, tc.body); w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}

	got, err := env.resumes.Get(context.Background(), doc.UserID, doc.ID)
	if err != nil || got.Title != resume.DefaultTitle {
		t.Fatalf("rejected updates must not write: %+v %v", got, err)
	}
}

func multipartUpdate(t *testing.T, token, resumeID, resumeData string, image []byte, contentType string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	_ = mw.WriteField("resumeId", resumeID)
	_ = mw.WriteField("resumeData", resumeData)
	_ = mw.WriteField("removeBackground", "yes")
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="me.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/resumes/update", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUpdateResumeWithImage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("img@example.com")
	doc := env.createResume(token, "")

	req := multipartUpdate(t, token, doc.ID, `{"personal_info":{"full_name":"Ada"},"template":"minimal-image"}`, []byte("\x89PNG fake"), "image/png")
	w := env.send(req)
	if w.Code != http.StatusOK {
		t.Fatalf("multipart update: %d %s", w.Code, w.Body.String())
	}

	got := decode[resumeEnvelope](t, w).Resume
	if got.PersonalInfo.Image != "https://img.test/file_1" || got.PersonalInfo.FullName != "Ada" {
		t.Fatalf("image not linked: %+v", got.PersonalInfo)
	}
	if len(env.images.uploads) != 1 || !env.images.uploads[0].RemoveBackground {
		t.Fatalf("unexpected uploads %+v", env.images.uploads)
	}

	// 非图片文件在任何副作用之前被拒绝。
	req = multipartUpdate(t, token, doc.ID, `{}`, []byte("#!/bin/sh"), "application/x-sh")
	if w := env.send(req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", w.Code)
	}
	if len(env.images.uploads) != 1 {
		t.Fatal("non-image must not be uploaded")
	}
}

func TestDeleteResumeTwice(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("del@example.com")
	doc := env.createResume(token, "")

	if w := env.do(http.MethodDelete, "/resumes/delete/"+doc.ID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("first delete: %d", w.Code)
	}
	if w := env.do(http.MethodDelete, "/resumes/delete/"+doc.ID, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestEditResume(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("edit@example.com")
	doc := env.createResume(token, "")

	w := env.do(http.MethodPost, "/resumes/edit", token, gin.H{
		"resumeId": doc.ID,
		"actions": []gin.H{
			{"section": "experience", "op": "add"},
			{"section": "experience", "op": "update", "index": 0, "field": "company", "value": "Acme"},
			{"section": "skills", "op": "add", "value": "Go"},
			{"section": "template", "op": "set", "value": "modern"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("edit: %d %s", w.Code, w.Body.String())
	}
	got := decode[resumeEnvelope](t, w).Resume
	if len(got.Experience) != 1 || got.Experience[0].Company != "Acme" || got.Template != resume.TemplateModern {
		t.Fatalf("unexpected edited resume %+v", got)
	}

	w = env.do(http.MethodPost, "/resumes/edit", token, gin.H{
		"resumeId": doc.ID,
		"actions": []gin.H{
			{"section": "title", "op": "set", "value": "Changed"},
			{"section": "education", "op": "remove", "index": 5},
		},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range action, got %d", w.Code)
	}
	after, _ := env.resumes.Get(context.Background(), doc.UserID, doc.ID)
	if after.Title == "Changed" {
		t.Fatal("batch with an invalid action must not be persisted")
	}

	w = env.do(http.MethodPost, "/resumes/edit", token, gin.H{
		"resumeId": doc.ID,
		"actions":  []gin.H{{"section": "experience", "op": "remove"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for remove without index, got %d", w.Code)
	}
	after, _ = env.resumes.Get(context.Background(), doc.UserID, doc.ID)
	if len(after.Experience) != 1 || after.Experience[0].Company != "Acme" {
		t.Fatalf("remove without index must not touch entries, got %+v", after.Experience)
	}
}

func TestPreviewResume(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("prev@example.com")
	_, other := env.signup("prev2@example.com")
	doc := env.createResume(token, "Preview")

	w := env.do(http.MethodGet, "/resumes/preview/"+doc.ID, token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "size: A4") {
		t.Fatalf("preview: %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/resumes/preview/"+doc.ID, other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign preview: expected 404, got %d", w.Code)
	}
}

func TestExportLifecycle(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup("exp@example.com")
	doc := env.createResume(token, "Backend / Go")

	if w := env.do(http.MethodGet, "/resumes/export/"+doc.ID+"/link", token, nil); w.Code != http.StatusConflict {
		t.Fatalf("link before export: expected 409, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/resumes/export/"+doc.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Correlation-ID", "corr-1")
	w := env.send(req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if len(env.exports.payloads) != 1 {
		t.Fatalf("expected one queued export, got %d", len(env.exports.payloads))
	}
	p := env.exports.payloads[0]
	if p.ResumeID != doc.ID || p.UserID != userID || p.CorrelationID != "corr-1" {
		t.Fatalf("unexpected payload %+v", p)
	}

	if w := env.do(http.MethodGet, "/resumes/export/"+doc.ID+"/link", token, nil); w.Code != http.StatusConflict {
		t.Fatalf("link while pending: expected 409, got %d", w.Code)
	}

	if err := env.resumes.FinishExport(context.Background(), doc.ID, "exports/key.pdf", nil); err != nil {
		t.Fatalf("finish export: %v", err)
	}
	w = env.do(http.MethodGet, "/resumes/export/"+doc.ID+"/link", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "exports/key.pdf") {
		t.Fatalf("link: %d %s", w.Code, w.Body.String())
	}
	if env.links.names[0] != "Backend  Go.pdf" {
		t.Fatalf("unexpected download name %q", env.links.names[0])
	}
}

func TestExportEnqueueFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup("expfail@example.com")
	doc := env.createResume(token, "")
	env.exports.err = errors.New("redis down")

	if w := env.do(http.MethodPost, "/resumes/export/"+doc.ID, token, nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	state, err := env.resumes.Export(context.Background(), doc.UserID, doc.ID)
	if err != nil || state.Status != resume.ExportStatusFailed {
		t.Fatalf("expected failed export state, got %+v %v", state, err)
	}
}

func TestDownloadName(t *testing.T) {
	cases := map[string]string{
		"My Resume":       "My Resume.pdf",
		"../../etc/passwd": "....etcpasswd.pdf",
		"简历":              "resume.pdf",
		"":                "resume.pdf",
	}
	for in, want := range cases {
		if got := downloadName(in); got != want {
			t.Errorf("downloadName(%q) = %q, want %q", in, got, want)
		}
	}
}
