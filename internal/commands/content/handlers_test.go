package contentcmd

import (
	"context"
	"errors"
	"testing"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/importer"
	"github.com/Nathan-Furnal/blog/internal/linkcheck"
	"github.com/Nathan-Furnal/blog/internal/scaffold"
)

func TestCheckLinksHandler_Execute_Clean(t *testing.T) {
	loader := &fakeLoader{model: &content.Model{}}
	checker := &fakeChecker{}

	callbackInvoked := false
	cmd := CheckLinksCommand{
		ResultCallback: func(report CheckReport) {
			callbackInvoked = true
			if len(report.Violations) != 0 {
				t.Fatalf("expected no violations, got %v", report.Violations)
			}
		},
	}

	handler := NewCheckLinksHandler(loader, checker, nil)
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute check: %v", err)
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestCheckLinksHandler_Execute_ReportsViolations(t *testing.T) {
	loader := &fakeLoader{model: &content.Model{}}
	checker := &fakeChecker{
		checkFunc: func(ctx context.Context, model *content.Model, extra ...string) ([]linkcheck.Violation, error) {
			if len(extra) != 1 || extra[0] != "/talks/" {
				t.Fatalf("expected extra routes forwarded, got %v", extra)
			}
			return []linkcheck.Violation{
				{File: "posts/hello.md", Destination: "/missing/", Reason: "no such route"},
			}, nil
		},
	}

	var reported CheckReport
	cmd := CheckLinksCommand{
		Extra: []string{"/talks/"},
		ResultCallback: func(report CheckReport) {
			reported = report
		},
	}

	handler := NewCheckLinksHandler(loader, checker, nil)
	err := handler.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrViolationsFound) {
		t.Fatalf("expected ErrViolationsFound, got %v", err)
	}
	if len(reported.Violations) != 1 {
		t.Fatalf("expected 1 reported violation, got %d", len(reported.Violations))
	}
	if reported.Violations[0].Destination != "/missing/" {
		t.Fatalf("unexpected violation: %+v", reported.Violations[0])
	}
}

func TestCheckLinksHandler_Execute_CheckerMissing(t *testing.T) {
	handler := NewCheckLinksHandler(nil, nil, nil)
	err := handler.Execute(context.Background(), CheckLinksCommand{})
	if !errors.Is(err, ErrCheckUnavailable) {
		t.Fatalf("expected ErrCheckUnavailable, got %v", err)
	}
}

func TestCheckLinksCommandValidate(t *testing.T) {
	cmd := CheckLinksCommand{Extra: []string{"/talks/", "  "}}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected validation error for blank extra route")
	}
	if err := (CheckLinksCommand{}).Validate(); err != nil {
		t.Fatalf("expected empty command to validate, got %v", err)
	}
}

func TestImportPageHandler_Execute(t *testing.T) {
	var captured importer.ImportInput
	svc := &fakeImporter{
		importFunc: func(ctx context.Context, input importer.ImportInput) (*importer.ImportResult, error) {
			captured = input
			return &importer.ImportResult{
				Page: &importer.Page{Title: "Fetched"},
				File: &scaffold.Result{Path: "content/clips/fetched.md", Slug: "fetched"},
			}, nil
		},
	}

	callbackInvoked := false
	cmd := ImportPageCommand{
		URL:     "https://example.com/article",
		Section: "clips",
		Format:  "yaml",
		Force:   true,
		ResultCallback: func(result *importer.ImportResult) {
			callbackInvoked = true
			if result == nil || result.File == nil || result.File.Slug != "fetched" {
				t.Fatalf("unexpected import result: %+v", result)
			}
		},
	}

	handler := NewImportPageHandler(svc, nil)
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute import: %v", err)
	}

	if captured.URL != "https://example.com/article" {
		t.Fatalf("expected url forwarded, got %q", captured.URL)
	}
	if captured.Section != "clips" {
		t.Fatalf("expected section forwarded, got %q", captured.Section)
	}
	if captured.Format != scaffold.FormatYAML {
		t.Fatalf("expected yaml format, got %q", captured.Format)
	}
	if !captured.Force {
		t.Fatal("expected force forwarded")
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestImportPageHandler_Execute_ImporterMissing(t *testing.T) {
	handler := NewImportPageHandler(nil, nil)
	err := handler.Execute(context.Background(), ImportPageCommand{URL: "https://example.com"})
	if !errors.Is(err, ErrImportUnavailable) {
		t.Fatalf("expected ErrImportUnavailable, got %v", err)
	}
}

func TestImportPageCommandValidate(t *testing.T) {
	if err := (ImportPageCommand{URL: "   "}).Validate(); err == nil {
		t.Fatal("expected validation error for blank url")
	}
	if err := (ImportPageCommand{URL: "https://example.com", Format: "ini"}).Validate(); err == nil {
		t.Fatal("expected validation error for unsupported format")
	}
	if err := (ImportPageCommand{URL: "https://example.com", Format: "toml"}).Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}
}

type fakeLoader struct {
	model *content.Model
	err   error
}

func (f *fakeLoader) Load(ctx context.Context) (*content.Model, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

type fakeChecker struct {
	checkFunc func(context.Context, *content.Model, ...string) ([]linkcheck.Violation, error)
}

func (f *fakeChecker) Check(ctx context.Context, model *content.Model, extra ...string) ([]linkcheck.Violation, error) {
	if f.checkFunc != nil {
		return f.checkFunc(ctx, model, extra...)
	}
	return nil, nil
}

type fakeImporter struct {
	importFunc func(context.Context, importer.ImportInput) (*importer.ImportResult, error)
}

func (f *fakeImporter) Import(ctx context.Context, input importer.ImportInput) (*importer.ImportResult, error) {
	if f.importFunc != nil {
		return f.importFunc(ctx, input)
	}
	return nil, nil
}
