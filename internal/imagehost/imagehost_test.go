package imagehost

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resumebuilder/internal/config"
)

func TestTransformation(t *testing.T) {
	if got := Transformation(false); got != "w-300,h-300,fo-face,z-0.75" {
		t.Fatalf("unexpected transformation: %s", got)
	}
	if got := Transformation(true); !strings.HasSuffix(got, ",e-bgremove") {
		t.Fatalf("expected background removal suffix, got %s", got)
	}
}

func TestImageKitUpload(t *testing.T) {
	var gotFields map[string]string
	var gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "private_key" || pass != "" {
			t.Errorf("unexpected basic auth %q %q %v", user, pass, ok)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			gotFile = string(data)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"fileId": "file_1", "url": "https://ik.test/a.png"})
	}))
	defer srv.Close()

	kit, err := NewImageKit(config.ImageKitConfig{PrivateKey: "private_key", UploadURL: srv.URL, APIURL: srv.URL}, "user-resumes", srv.Client())
	if err != nil {
		t.Fatalf("new imagekit: %v", err)
	}

	res, err := kit.Upload(context.Background(), Upload{OwnerID: "u1", Body: strings.NewReader("png-bytes"), RemoveBackground: true})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.FileID != "file_1" || res.URL != "https://ik.test/a.png" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gotFile != "png-bytes" {
		t.Fatalf("unexpected file body %q", gotFile)
	}
	if gotFields["fileName"] != "resume-profile-u1.png" || gotFields["folder"] != "user-resumes" {
		t.Fatalf("unexpected fields: %#v", gotFields)
	}
	var tr map[string]string
	if err := json.Unmarshal([]byte(gotFields["transformation"]), &tr); err != nil {
		t.Fatalf("transformation json: %v", err)
	}
	if tr["pre"] != Transformation(true) {
		t.Fatalf("unexpected pre transformation %q", tr["pre"])
	}
}

func TestImageKitUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad key"})
	}))
	defer srv.Close()

	kit, _ := NewImageKit(config.ImageKitConfig{PrivateKey: "k", UploadURL: srv.URL, APIURL: srv.URL}, "f", srv.Client())
	if _, err := kit.Upload(context.Background(), Upload{OwnerID: "u", Body: strings.NewReader("x")}); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected upload error with message, got %v", err)
	}
}

func TestImageKitDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	kit, _ := NewImageKit(config.ImageKitConfig{PrivateKey: "k", UploadURL: srv.URL, APIURL: srv.URL + "/v1"}, "f", srv.Client())
	if err := kit.Delete(context.Background(), "file_9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/v1/files/file_9" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestNewImageKitRequiresKey(t *testing.T) {
	if _, err := NewImageKit(config.ImageKitConfig{}, "f", nil); err == nil {
		t.Fatal("expected error without private key")
	}
}

type fakeScanner struct{ err error }

func (f fakeScanner) Scan(_ context.Context, r io.Reader) error {
	_, _ = io.ReadAll(r)
	return f.err
}

type recordingUploader struct {
	body    string
	size    int64
	deleted []string
}

func (r *recordingUploader) Upload(_ context.Context, in Upload) (Result, error) {
	data, _ := io.ReadAll(in.Body)
	r.body = string(data)
	r.size = in.Size
	return Result{FileID: "id", URL: "url"}, nil
}

func (r *recordingUploader) Delete(_ context.Context, fileID string) error {
	r.deleted = append(r.deleted, fileID)
	return nil
}

func TestScanningPassesCleanFileThrough(t *testing.T) {
	next := &recordingUploader{}
	up := WithScanner(next, fakeScanner{})

	if _, err := up.Upload(context.Background(), Upload{OwnerID: "u", Body: strings.NewReader("clean")}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if next.body != "clean" || next.size != 5 {
		t.Fatalf("downstream got body %q size %d", next.body, next.size)
	}
}

func TestScanningBlocksInfectedFile(t *testing.T) {
	next := &recordingUploader{}
	up := WithScanner(next, fakeScanner{err: ErrInfected})

	_, err := up.Upload(context.Background(), Upload{OwnerID: "u", Body: strings.NewReader("evil")})
	if !errors.Is(err, ErrInfected) {
		t.Fatalf("expected ErrInfected, got %v", err)
	}
	if next.body != "" {
		t.Fatal("infected file must not reach the uploader")
	}
}

func TestWithScannerNilReturnsNext(t *testing.T) {
	next := &recordingUploader{}
	if WithScanner(next, nil) != Uploader(next) {
		t.Fatal("expected uploader unchanged without scanner")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Image:    config.ImageConfig{Provider: "imagekit", Folder: "user-resumes"},
		ImageKit: config.ImageKitConfig{PrivateKey: "k"},
	}
	up, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("imagekit: %v", err)
	}
	if _, ok := up.(*ImageKit); !ok {
		t.Fatalf("expected *ImageKit, got %T", up)
	}

	cfg.Clamd.Addr = "tcp://127.0.0.1:3310"
	up, err = FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("imagekit with clamd: %v", err)
	}
	if _, ok := up.(*Scanning); !ok {
		t.Fatalf("expected *Scanning, got %T", up)
	}

	cfg.Image.Provider = "minio"
	if _, err := FromConfig(cfg, nil); err == nil {
		t.Fatal("expected error for minio without storage")
	}
}
