package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// mockFetcher implements the Fetcher interface for testing.
type mockFetcher struct {
	BaseFetcher
	fetchFn func(ctx context.Context, params QueryParams) (*FetchResult, error)
}

func newMockFetcher(model ModelType, required []string) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: NewBaseFetcher(model, "mock fetcher for "+string(model), required, nil),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, params)
	}
	return &FetchResult{
		Data:      "mock-data",
		FetchedAt: time.Now(),
	}, nil
}

// mockProvider implements the Provider interface for testing.
type mockProvider struct {
	BaseProvider
	pingErr error
}

func newMockProvider(name string, models ...ModelType) *mockProvider {
	mp := &mockProvider{
		BaseProvider: NewBaseProvider(name, "Mock "+name, "https://example.com"),
	}
	for _, m := range models {
		mp.RegisterFetcher(newMockFetcher(m, []string{ParamDate}))
	}
	return mp
}

func (m *mockProvider) Ping(ctx context.Context) error { return m.pingErr }

// --- Registry Tests ---

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := newMockProvider("test-provider", ModelBondReferencePrices, ModelHolidays)

	if err := reg.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get("test-provider")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Info().Name != "test-provider" {
		t.Errorf("expected name test-provider, got %s", got.Info().Name)
	}
	if len(got.Info().Models) != 2 {
		t.Errorf("expected 2 models in info, got %v", got.Info().Models)
	}
}

func TestRegistryRegisterEmptyName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newMockProvider("")); err == nil {
		t.Error("expected error for empty provider name")
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nonexistent")
	if err == nil {
		t.Fatal("expected error for nonexistent provider")
	}
	if _, ok := err.(*ErrProviderNotFound); !ok {
		t.Errorf("expected ErrProviderNotFound, got %T", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("jsda", ModelBondReferencePrices))
	_ = reg.Register(newMockProvider("cao", ModelHolidays))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(list))
	}
	if list[0].Name != "cao" || list[1].Name != "jsda" {
		t.Errorf("expected [cao jsda], got [%s %s]", list[0].Name, list[1].Name)
	}
}

func TestRegistryDefaultProvider(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("p1", ModelBondReferencePrices))
	_ = reg.Register(newMockProvider("p2", ModelBondReferencePrices, ModelHolidays))

	if name, _ := reg.DefaultProvider(ModelBondReferencePrices); name != "p1" {
		t.Errorf("BondReferencePrices default: got %q, want p1", name)
	}
	if name, _ := reg.DefaultProvider(ModelHolidays); name != "p2" {
		t.Errorf("Holidays default: got %q, want p2", name)
	}
	if _, ok := reg.DefaultProvider(ModelNotices); ok {
		t.Error("Notices should have no default")
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newMockProvider("jsda", ModelBondReferencePrices)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(newMockProvider("jsda", ModelHolidays)); err == nil {
		t.Fatal("second registration under the same name should fail")
	}
	if cov := reg.ModelCoverage(); len(cov[ModelHolidays]) != 0 {
		t.Errorf("rejected provider leaked into coverage: %v", cov)
	}
}

func TestRegistryFetch(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("jsda", ModelBondReferencePrices))

	result, err := reg.Fetch(context.Background(), ModelBondReferencePrices, QueryParams{ParamDate: "2026-10-16"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Provider != "jsda" {
		t.Errorf("Provider: got %q, want jsda", result.Provider)
	}
	if result.Model != ModelBondReferencePrices {
		t.Errorf("Model: got %q", result.Model)
	}
	if result.Data != "mock-data" {
		t.Errorf("Data: got %v", result.Data)
	}
}

func TestRegistryFetchMissingParam(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("jsda", ModelBondReferencePrices))

	_, err := reg.Fetch(context.Background(), ModelBondReferencePrices, QueryParams{})
	var missing *ErrMissingParam
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
	if missing.Param != ParamDate {
		t.Errorf("Param: got %q, want date", missing.Param)
	}
}

func TestRegistryFetchUnsupportedModel(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("jsda", ModelBondReferencePrices))

	_, err := reg.Fetch(context.Background(), ModelHolidays, QueryParams{ParamProvider: "jsda"})
	if _, ok := err.(*ErrModelNotSupported); !ok {
		t.Errorf("expected ErrModelNotSupported, got %T (%v)", err, err)
	}
}

func TestRegistryFetchWrapsFetcherError(t *testing.T) {
	sentinel := errors.New("upstream down")
	p := &mockProvider{BaseProvider: NewBaseProvider("jsda", "", "")}
	f := newMockFetcher(ModelBondReferencePrices, nil)
	f.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return nil, sentinel
	}
	p.RegisterFetcher(f)

	reg := NewRegistry()
	_ = reg.Register(p)

	_, err := reg.Fetch(context.Background(), ModelBondReferencePrices, QueryParams{})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), `provider "jsda"`) {
		t.Errorf("error should name the provider: %v", err)
	}
}

func TestModelCoverage(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(newMockProvider("jsda", ModelBondReferencePrices))
	_ = reg.Register(newMockProvider("cao", ModelHolidays))

	cov := reg.ModelCoverage()
	if len(cov) != 2 {
		t.Fatalf("expected 2 models, got %d", len(cov))
	}
	if cov[ModelHolidays][0] != "cao" {
		t.Errorf("Holidays coverage: got %v", cov[ModelHolidays])
	}
	cov[ModelHolidays][0] = "changed"
	if again := reg.ModelCoverage(); again[ModelHolidays][0] != "cao" {
		t.Error("ModelCoverage should return a copy")
	}
}

func TestPingAll(t *testing.T) {
	reg := NewRegistry()
	bad := newMockProvider("bad", ModelNotices)
	bad.pingErr = errors.New("unreachable")
	_ = reg.Register(newMockProvider("good", ModelHolidays))
	_ = reg.Register(bad)

	res := reg.PingAll(context.Background())
	if res["good"] != nil {
		t.Errorf("good: got %v", res["good"])
	}
	if res["bad"] == nil {
		t.Error("bad: expected error")
	}
}

// --- Helper Tests ---

func TestCacheKey(t *testing.T) {
	a := CacheKey(ModelBondReferencePrices, QueryParams{ParamDate: "2026-10-16", ParamLimit: "5", ParamProvider: "jsda"})
	b := CacheKey(ModelBondReferencePrices, QueryParams{ParamLimit: "5", ParamDate: "2026-10-16", ParamRefresh: "1"})
	if a != b {
		t.Errorf("cache keys differ: %q vs %q", a, b)
	}
	want := "BondReferencePrices:date=2026-10-16:limit=5"
	if a != want {
		t.Errorf("CacheKey: got %q, want %q", a, want)
	}
}

func TestWantsRefresh(t *testing.T) {
	if !WantsRefresh(QueryParams{ParamRefresh: "true"}) {
		t.Error("refresh=true should refresh")
	}
	if WantsRefresh(QueryParams{}) {
		t.Error("missing refresh should not refresh")
	}
}

func TestValidateParams(t *testing.T) {
	if err := ValidateParams(QueryParams{ParamDate: "x"}, []string{ParamDate}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateParams(QueryParams{ParamDate: ""}, []string{ParamDate}); err == nil {
		t.Error("empty value should fail")
	}
}

func TestDateParam(t *testing.T) {
	d, err := DateParam(QueryParams{ParamDate: "2026-10-16"}, ParamDate, time.UTC)
	if err != nil {
		t.Fatalf("DateParam: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.October || d.Day() != 16 {
		t.Errorf("DateParam: got %v", d)
	}

	_, err = DateParam(QueryParams{ParamDate: "16/10/2026"}, ParamDate, time.UTC)
	var invalid *ErrInvalidParam
	if !errors.As(err, &invalid) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}
}

func TestAllModelTypes(t *testing.T) {
	if len(AllModelTypes()) != 3 {
		t.Errorf("AllModelTypes: got %v", AllModelTypes())
	}
}
