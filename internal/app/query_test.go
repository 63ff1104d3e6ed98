package app_test

import (
	"context"
	"testing"

	"github.com/neomorfeo/modreg/internal/domain"
)

func seededService(t *testing.T) (*mockRepo, queryService) {
	t.Helper()
	repo := newMockRepo()
	svc := newService(repo, &mockPublisher{}, "core-auth")
	seed(repo, "core-auth", true, true, domain.StatusActive)
	seed(repo, "articles", false, true, domain.StatusActive)
	seed(repo, "search", false, true, domain.StatusMaintenance)
	seed(repo, "billing", false, false, domain.StatusInactive)
	return repo, svc
}

// queryService narrows the surface these tests exercise.
type queryService interface {
	ListAll(ctx context.Context) ([]domain.Module, error)
	ListEnabled(ctx context.Context) ([]domain.Module, error)
	ListAvailable(ctx context.Context) ([]domain.Module, error)
	ListMenu(ctx context.Context) ([]domain.Module, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	IsModuleEnabled(ctx context.Context, key string) (bool, error)
	IsCoreModule(ctx context.Context, key string) (bool, error)
}

func TestListAll(t *testing.T) {
	_, svc := seededService(t)

	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("got %d modules, want 4", len(all))
	}
}

func TestListEnabled_IncludesMaintenance(t *testing.T) {
	_, svc := seededService(t)

	enabled, err := svc.ListEnabled(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// core-auth, articles, search: enabled regardless of status.
	if len(enabled) != 3 {
		t.Errorf("got %d modules, want 3", len(enabled))
	}
}

func TestListAvailable_ExcludesMaintenance(t *testing.T) {
	_, svc := seededService(t)

	available, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("got %d modules, want 2", len(available))
	}
	for _, m := range available {
		if !m.IsAvailable() {
			t.Errorf("module %q in ListAvailable but not available", m.Key)
		}
	}
}

func TestListMenu_OrderAndFiltering(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, &mockPublisher{})
	ctx := context.Background()

	seed(repo, "zeta", false, true, domain.StatusActive)
	seed(repo, "alpha", false, true, domain.StatusActive)
	seed(repo, "hidden", false, true, domain.StatusActive)
	seed(repo, "off", false, false, domain.StatusInactive)

	withOrder := func(key string, order int, show bool) {
		m := repo.modules[key]
		m.MenuOrder = order
		m.ShowInMenu = show
		repo.modules[key] = m
	}
	withOrder("zeta", 1, true)
	withOrder("alpha", 2, true)
	withOrder("hidden", 0, false)
	withOrder("off", 0, true)

	menu, err := svc.ListMenu(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(menu) != 2 {
		t.Fatalf("got %d menu entries, want 2", len(menu))
	}
	if menu[0].Key != "zeta" || menu[1].Key != "alpha" {
		t.Errorf("menu order = [%s %s], want [zeta alpha]", menu[0].Key, menu[1].Key)
	}
}

func TestStatistics(t *testing.T) {
	_, svc := seededService(t)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.Statistics{Total: 4, Enabled: 3, Disabled: 1, Core: 1, Custom: 3}
	if stats != want {
		t.Errorf("Statistics = %+v, want %+v", stats, want)
	}
}

func TestIsModuleEnabled(t *testing.T) {
	_, svc := seededService(t)
	ctx := context.Background()

	cases := []struct {
		key  string
		want bool
	}{
		{"articles", true},
		{"apps.articles", true}, // prefixed spelling resolves
		{"search", false},       // enabled but under maintenance
		{"billing", false},
		{"ghost", false}, // unknown keys answer false, not an error
	}

	for _, tc := range cases {
		got, err := svc.IsModuleEnabled(ctx, tc.key)
		if err != nil {
			t.Fatalf("IsModuleEnabled(%q): %v", tc.key, err)
		}
		if got != tc.want {
			t.Errorf("IsModuleEnabled(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestIsCoreModule(t *testing.T) {
	_, svc := seededService(t)
	ctx := context.Background()

	if got, _ := svc.IsCoreModule(ctx, "core-auth"); !got {
		t.Error("IsCoreModule(core-auth) = false, want true")
	}
	if got, _ := svc.IsCoreModule(ctx, "articles"); got {
		t.Error("IsCoreModule(articles) = true, want false")
	}
	if got, err := svc.IsCoreModule(ctx, "ghost"); got || err != nil {
		t.Errorf("IsCoreModule(ghost) = (%v, %v), want (false, nil)", got, err)
	}
}
