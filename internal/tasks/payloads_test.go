package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func TestDispatcherSchedulesTasks(t *testing.T) {
	q := &fakeEnqueuer{}
	d := NewDispatcher(q)
	ctx := context.Background()

	if err := d.ScheduleImageCleanup(ctx, "file-1"); err != nil {
		t.Fatalf("image cleanup: %v", err)
	}
	id, err := d.SchedulePDFExport(ctx, PDFExportPayload{ResumeID: "r-1", UserID: "u-1"})
	if err != nil || id != "task-1" {
		t.Fatalf("pdf export: id=%q err=%v", id, err)
	}
	if err := d.ScheduleWelcomeMail(ctx, "a@b.c", "Ada"); err != nil {
		t.Fatalf("welcome mail: %v", err)
	}
	if err := d.ScheduleExportCleanup(ctx, "exports/u-1/r-1/old.pdf"); err != nil {
		t.Fatalf("export cleanup: %v", err)
	}

	if len(q.tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(q.tasks))
	}
	wantTypes := []string{TypeImageCleanup, TypePDFExport, TypeWelcomeMail, TypeExportCleanup}
	for i, want := range wantTypes {
		if q.tasks[i].Type() != want {
			t.Fatalf("task %d type = %q, want %q", i, q.tasks[i].Type(), want)
		}
	}

	var cleanup ImageCleanupPayload
	if err := json.Unmarshal(q.tasks[0].Payload(), &cleanup); err != nil || cleanup.FileID != "file-1" {
		t.Fatalf("cleanup payload = %+v err=%v", cleanup, err)
	}
	var stale ExportCleanupPayload
	if err := json.Unmarshal(q.tasks[3].Payload(), &stale); err != nil || stale.ObjectKey != "exports/u-1/r-1/old.pdf" {
		t.Fatalf("export cleanup payload = %+v err=%v", stale, err)
	}
}

func TestDispatcherWrapsEnqueueError(t *testing.T) {
	d := NewDispatcher(&fakeEnqueuer{err: errors.New("redis down")})
	if err := d.ScheduleImageCleanup(context.Background(), "f"); err == nil {
		t.Fatal("expected enqueue error")
	}
	if err := d.ScheduleExportCleanup(context.Background(), "k"); err == nil {
		t.Fatal("expected enqueue error")
	}
	if _, err := d.SchedulePDFExport(context.Background(), PDFExportPayload{}); err == nil {
		t.Fatal("expected enqueue error")
	}
}
