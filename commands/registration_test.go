package commands

import (
	"context"
	"testing"

	"github.com/Nathan-Furnal/blog/internal/archive"
	buildcmd "github.com/Nathan-Furnal/blog/internal/commands/build"
	contentcmd "github.com/Nathan-Furnal/blog/internal/commands/content"
	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/generator"
	"github.com/Nathan-Furnal/blog/internal/importer"
	"github.com/Nathan-Furnal/blog/internal/linkcheck"
	"github.com/Nathan-Furnal/blog/internal/runtimeconfig"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

func allServices() Services {
	return Services{
		Generator: fakeGeneratorService{},
		Loader:    fakeLoader{},
		LinkCheck: fakeChecker{},
		Importer:  fakeImporter{},
		Archive:   fakeArchiver{},
	}
}

func TestRegisterSiteCommandsBuildsHandlers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Archive.Enabled = true

	registry := &recordingRegistry{}
	dispatcher := &recordingDispatcher{}
	cron := &recordingCron{}

	result, err := RegisterSiteCommands(cfg, allServices(), RegistrationOptions{
		Registry:           registry,
		Dispatcher:         dispatcher,
		CronRegistrar:      cron.Registrar(),
		RefreshArchiveCron: "@weekly",
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}

	if len(result.Handlers) != 7 {
		t.Fatalf("expected 7 handlers (build x4, check, import, refresh), got %d", len(result.Handlers))
	}
	if len(result.Handlers) != len(registry.handlers) {
		t.Fatalf("expected registry to record all handlers, got %d of %d", len(registry.handlers), len(result.Handlers))
	}
	if len(dispatcher.subscriptions) != len(result.Handlers) {
		t.Fatalf("expected a dispatcher subscription per handler, got %d", len(dispatcher.subscriptions))
	}
	if len(cron.registrations) != 1 {
		t.Fatalf("expected one cron registration, got %d", len(cron.registrations))
	}
	if got := cron.registrations[0].config.Expression; got != "@weekly" {
		t.Fatalf("expected refresh cron expression override, got %q", got)
	}
}

func TestRegisterSiteCommandsWithoutRegistrars(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	result, err := RegisterSiteCommands(cfg, allServices(), RegistrationOptions{})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) == 0 {
		t.Fatal("expected handlers to be built even without registrars")
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected no dispatcher subscriptions without dispatcher, got %d", len(result.Subscriptions))
	}
}

func TestRegisterSiteCommandsSkipsSitemapWhenDisabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.Sitemap = false

	result, err := RegisterSiteCommands(cfg, allServices(), RegistrationOptions{})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}

	for _, handler := range result.Handlers {
		if _, ok := handler.(*buildcmd.BuildSitemapHandler); ok {
			t.Fatal("expected sitemap handler not to be registered when sitemap generation is disabled")
		}
	}
}

func TestRegisterSiteCommandsSkipsArchiveWhenDisabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Archive.Enabled = false

	cron := &recordingCron{}
	result, err := RegisterSiteCommands(cfg, allServices(), RegistrationOptions{
		CronRegistrar: cron.Registrar(),
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}

	for _, handler := range result.Handlers {
		if _, ok := handler.(*contentcmd.RefreshArchiveHandler); ok {
			t.Fatal("expected refresh handler not to be registered when the archive is disabled")
		}
	}
	if len(cron.registrations) != 0 {
		t.Fatalf("expected no cron registrations without the refresh handler, got %d", len(cron.registrations))
	}
}

func TestRegisterSiteCommandsRequiresServices(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	result, err := RegisterSiteCommands(cfg, Services{}, RegistrationOptions{})
	if err == nil {
		t.Fatal("expected error when no services are configured")
	}
	if len(result.Handlers) != 0 {
		t.Fatalf("expected no handlers, got %d", len(result.Handlers))
	}
}

type fakeGeneratorService struct{}

func (fakeGeneratorService) Build(context.Context, generator.BuildOptions) (*generator.BuildResult, error) {
	return &generator.BuildResult{}, nil
}

func (fakeGeneratorService) BuildPage(context.Context, uuid.UUID) error { return nil }

func (fakeGeneratorService) BuildAssets(context.Context) error { return nil }

func (fakeGeneratorService) BuildSitemap(context.Context) error { return nil }

func (fakeGeneratorService) Clean(context.Context) error { return nil }

type fakeLoader struct{}

func (fakeLoader) Load(context.Context) (*content.Model, error) {
	return &content.Model{}, nil
}

type fakeChecker struct{}

func (fakeChecker) Check(context.Context, *content.Model, ...string) ([]linkcheck.Violation, error) {
	return nil, nil
}

type fakeImporter struct{}

func (fakeImporter) Import(context.Context, importer.ImportInput) (*importer.ImportResult, error) {
	return &importer.ImportResult{}, nil
}

type fakeArchiver struct{}

func (fakeArchiver) Refresh(context.Context, *content.Model) (*archive.RefreshResult, error) {
	return &archive.RefreshResult{}, nil
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

type cronRegistration struct {
	config  command.HandlerConfig
	handler func() error
}

type recordingCron struct {
	registrations []cronRegistration
	err           error
}

func (c *recordingCron) Registrar() CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		if c.err != nil {
			return c.err
		}
		var fn func() error
		if h, ok := handler.(func() error); ok {
			fn = h
		}
		c.registrations = append(c.registrations, cronRegistration{
			config:  cfg,
			handler: fn,
		})
		return nil
	}
}

type recordingDispatcher struct {
	handlers      []any
	subscriptions []*recordingSubscription
	err           error
}

func (d *recordingDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.handlers = append(d.handlers, handler)
	sub := &recordingSubscription{handler: handler}
	d.subscriptions = append(d.subscriptions, sub)
	return sub, nil
}

type recordingSubscription struct {
	handler      any
	unsubscribed bool
}

func (s *recordingSubscription) Unsubscribe() {
	s.unsubscribed = true
}
