package contentcmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nathan-Furnal/blog/internal/archive"
	"github.com/Nathan-Furnal/blog/internal/content"
)

func TestRefreshArchiveHandler_Execute(t *testing.T) {
	model := &content.Model{}
	loader := &fakeLoader{model: model}

	refreshed := false
	archiver := &fakeArchiver{
		refreshFunc: func(ctx context.Context, got *content.Model) (*archive.RefreshResult, error) {
			refreshed = true
			if got != model {
				t.Fatal("expected the loaded model to be forwarded")
			}
			return &archive.RefreshResult{Created: 2, Kept: 1}, nil
		},
	}

	handler := NewRefreshArchiveHandler(loader, archiver, nil, FeatureGates{ArchiveEnabled: func() bool { return true }})
	if err := handler.Execute(context.Background(), RefreshArchiveCommand{}); err != nil {
		t.Fatalf("execute refresh: %v", err)
	}
	if !refreshed {
		t.Fatal("expected Refresh to be called")
	}
}

func TestRefreshArchiveHandler_Execute_ArchiveDisabled(t *testing.T) {
	handler := NewRefreshArchiveHandler(&fakeLoader{}, &fakeArchiver{}, nil, FeatureGates{})
	err := handler.Execute(context.Background(), RefreshArchiveCommand{})
	if !errors.Is(err, archive.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestRefreshArchiveHandler_Execute_RefreshError(t *testing.T) {
	wantErr := errors.New("index locked")
	archiver := &fakeArchiver{
		refreshFunc: func(ctx context.Context, _ *content.Model) (*archive.RefreshResult, error) {
			return nil, wantErr
		},
	}

	handler := NewRefreshArchiveHandler(&fakeLoader{model: &content.Model{}}, archiver, nil, FeatureGates{ArchiveEnabled: func() bool { return true }})
	err := handler.Execute(context.Background(), RefreshArchiveCommand{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected refresh error to propagate, got %v", err)
	}
}

func TestRefreshArchiveHandler_CronDefaults(t *testing.T) {
	handler := NewRefreshArchiveHandler(nil, nil, nil, FeatureGates{})
	if expr := handler.CronOptions().Expression; expr != "@daily" {
		t.Fatalf("expected @daily default, got %q", expr)
	}

	handler = NewRefreshArchiveHandler(nil, nil, nil, FeatureGates{},
		RefreshWithCronExpression("@hourly"),
		RefreshWithTimeout(time.Minute),
	)
	if expr := handler.CronOptions().Expression; expr != "@hourly" {
		t.Fatalf("expected @hourly override, got %q", expr)
	}
	if handler.timeout != time.Minute {
		t.Fatalf("expected timeout override, got %v", handler.timeout)
	}

	cli := handler.CLIOptions()
	if len(cli.Path) != 2 || cli.Path[0] != "archive" {
		t.Fatalf("unexpected CLI path: %v", cli.Path)
	}
}

func TestRefreshArchiveHandler_CronHandlerRuns(t *testing.T) {
	archiver := &fakeArchiver{}
	handler := NewRefreshArchiveHandler(&fakeLoader{model: &content.Model{}}, archiver, nil, FeatureGates{ArchiveEnabled: func() bool { return true }})

	if err := handler.CronHandler()(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}
}

type fakeArchiver struct {
	refreshFunc func(context.Context, *content.Model) (*archive.RefreshResult, error)
}

func (f *fakeArchiver) Refresh(ctx context.Context, model *content.Model) (*archive.RefreshResult, error) {
	if f.refreshFunc != nil {
		return f.refreshFunc(ctx, model)
	}
	return &archive.RefreshResult{}, nil
}
