package linkcheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Nathan-Furnal/blog/internal/content"
	"github.com/Nathan-Furnal/blog/internal/linkcheck"
)

func newCheckModel() *content.Model {
	hello := &content.Post{
		Title:      "Hello World",
		Section:    "posts",
		Route:      "/posts/hello/",
		SourcePath: "posts/hello.md",
	}
	world := &content.Post{
		Title:      "World Tour",
		Section:    "posts",
		Route:      "/posts/world/",
		SourcePath: "posts/world.md",
	}
	about := &content.Page{
		Title:      "About",
		Route:      "/about/",
		SourcePath: "about.md",
	}

	return &content.Model{
		Posts: []*content.Post{hello, world},
		Pages: []*content.Page{about},
		Sections: []*content.Section{
			{Name: "posts", Route: "/posts/", Posts: []*content.Post{hello, world}},
		},
		Aliases: map[string]string{"/old-hello/": "/posts/hello/"},
	}
}

func newChecker() *linkcheck.Service {
	return linkcheck.NewService(linkcheck.Config{BaseURL: "https://example.com"}, nil)
}

func TestCheckAcceptsResolvableDestinations(t *testing.T) {
	model := newCheckModel()
	model.Posts[0].Body = []byte(`Links that all resolve:

[about](/about/) and [bare](/about) and [index](/about/index.html) and
[sibling](../world/) and [section](/posts/) and [alias](/old-hello/) and
[asset](/favicon.svg) and [external](https://elsewhere.example/missing/) and
[mail](mailto:hi@example.com) and [fragment](#top) and
[same host](https://example.com/posts/world/).
`)

	violations, err := newChecker().Check(context.Background(), model, "/favicon.svg")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestCheckReportsUnresolvedDestinations(t *testing.T) {
	model := newCheckModel()
	model.Posts[0].Body = []byte("[missing](/nope/) and ![banner](/images/banner.png) and [missing](/nope/) again")
	model.Pages[0].Body = []byte("[gone](/archive/2019/)")

	violations, err := newChecker().Check(context.Background(), model)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %v", violations)
	}

	// Sorted by file, then destination; repeated destinations collapse.
	if violations[0].File != "about.md" || violations[0].Destination != "/archive/2019/" {
		t.Fatalf("unexpected first violation %+v", violations[0])
	}
	if violations[1].File != "posts/hello.md" || violations[1].Destination != "/images/banner.png" {
		t.Fatalf("unexpected second violation %+v", violations[1])
	}
	if violations[2].Destination != "/nope/" {
		t.Fatalf("unexpected third violation %+v", violations[2])
	}
	if violations[2].Reason == "" {
		t.Fatal("expected a reason on every violation")
	}
}

func TestCheckResolvesRelativeAgainstRoute(t *testing.T) {
	model := newCheckModel()
	model.Posts[1].Body = []byte("[up](../hello/) and [local image](img.png)")

	violations, err := newChecker().Check(context.Background(), model)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected only the local image to fail, got %v", violations)
	}
	if violations[0].Destination != "img.png" {
		t.Fatalf("expected original destination preserved, got %+v", violations[0])
	}

	// The same image resolves once it is a known asset under the post route.
	violations, err = newChecker().Check(context.Background(), model, "/posts/world/img.png")
	if err != nil {
		t.Fatalf("check with asset: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations with asset registered, got %v", violations)
	}
}

func TestCheckTreatsSameHostAbsoluteAsInternal(t *testing.T) {
	model := newCheckModel()
	model.Posts[0].Body = []byte("Visit https://example.com/missing/ or https://elsewhere.example/missing/")

	violations, err := newChecker().Check(context.Background(), model)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected only the same-host autolink to fail, got %v", violations)
	}
	if violations[0].Destination != "https://example.com/missing/" {
		t.Fatalf("unexpected violation %+v", violations[0])
	}
}

func TestCheckWalksListingsAndHome(t *testing.T) {
	model := newCheckModel()
	model.Home = &content.Page{
		Route:      "/",
		SourcePath: "_index.md",
		Body:       []byte("[broken](/broken/)"),
	}
	model.Sections[0].Index = &content.Page{
		Route:      "/posts/",
		SourcePath: "posts/_index.md",
		Body:       []byte("[also broken](/also-broken/)"),
	}

	violations, err := newChecker().Check(context.Background(), model)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
	if violations[0].File != "_index.md" || violations[1].File != "posts/_index.md" {
		t.Fatalf("expected listing files reported, got %v", violations)
	}
}

func TestCheckRequiresModel(t *testing.T) {
	if _, err := newChecker().Check(context.Background(), nil); !errors.Is(err, linkcheck.ErrModelRequired) {
		t.Fatalf("expected ErrModelRequired, got %v", err)
	}
}

func TestCheckHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newChecker().Check(ctx, newCheckModel()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
