package resolver

import (
	"context"
	"errors"
	"testing"

	"freight-enquiry-importer/internal/domain"
)

// stubCountryRepo is an in-memory CountryRepository for resolver tests.
type stubCountryRepo struct {
	rows    []domain.Country
	codes   map[string]bool
	created []domain.Country
	nextID  int64
}

func newStubCountryRepo(rows ...domain.Country) *stubCountryRepo {
	s := &stubCountryRepo{rows: rows, codes: make(map[string]bool), nextID: 100}
	for _, row := range rows {
		s.codes[row.Code] = true
	}
	return s
}

func (s *stubCountryRepo) LoadAll(ctx context.Context) ([]domain.Country, error) {
	return s.rows, nil
}

func (s *stubCountryRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return s.codes[code], nil
}

func (s *stubCountryRepo) Create(ctx context.Context, country domain.Country) (int64, error) {
	s.nextID++
	country.ID = s.nextID
	s.created = append(s.created, country)
	s.codes[country.Code] = true
	return country.ID, nil
}

func (s *stubCountryRepo) Upsert(ctx context.Context, country domain.Country) error { return nil }

type stubPortRepo struct {
	rows    []domain.Port
	created []domain.Port
	nextID  int64
}

func (s *stubPortRepo) LoadAll(ctx context.Context) ([]domain.Port, error) { return s.rows, nil }

func (s *stubPortRepo) Create(ctx context.Context, port domain.Port) (int64, error) {
	s.nextID++
	port.ID = s.nextID
	s.created = append(s.created, port)
	return port.ID, nil
}

func (s *stubPortRepo) Upsert(ctx context.Context, port domain.Port) error { return nil }

type stubOfficeRepo struct {
	rows    []domain.SalesOffice
	created []domain.SalesOffice
	nextID  int64
}

func (s *stubOfficeRepo) LoadAll(ctx context.Context) ([]domain.SalesOffice, error) {
	return s.rows, nil
}

func (s *stubOfficeRepo) Create(ctx context.Context, office domain.SalesOffice) (int64, error) {
	s.nextID++
	office.ID = s.nextID
	s.created = append(s.created, office)
	return office.ID, nil
}

func (s *stubOfficeRepo) Upsert(ctx context.Context, office domain.SalesOffice) error { return nil }

type stubCategoryRepo struct {
	rows []domain.Category
}

func (s *stubCategoryRepo) LoadAll(ctx context.Context) ([]domain.Category, error) {
	return s.rows, nil
}

// failingSavepointer simulates a batch where every fenced insert fails.
type failingSavepointer struct{}

func (failingSavepointer) WithSavepoint(ctx context.Context, fn func(context.Context) error) error {
	return errors.New("savepoint rolled back")
}

func newTestResolver(t *testing.T, countries *stubCountryRepo, ports *stubPortRepo, offices *stubOfficeRepo, categories *stubCategoryRepo) *Resolver {
	t.Helper()
	if countries == nil {
		countries = newStubCountryRepo()
	}
	if ports == nil {
		ports = &stubPortRepo{}
	}
	if offices == nil {
		offices = &stubOfficeRepo{}
	}
	if categories == nil {
		categories = &stubCategoryRepo{}
	}
	r := New(countries, ports, offices, categories, nil)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func TestCountryResolutionIsCaseInsensitiveAndIdempotent(t *testing.T) {
	countries := newStubCountryRepo()
	r := newTestResolver(t, countries, nil, nil, nil)
	ctx := context.Background()

	first, err := r.Country(ctx, "china")
	if err != nil {
		t.Fatalf("Country(china): %v", err)
	}
	for _, name := range []string{"CHINA", " China ", "china"} {
		id, err := r.Country(ctx, name)
		if err != nil {
			t.Fatalf("Country(%q): %v", name, err)
		}
		if id != first {
			t.Fatalf("Country(%q) = %d, want cached id %d", name, id, first)
		}
	}

	if len(countries.created) != 1 {
		t.Fatalf("created %d countries, want 1", len(countries.created))
	}
	if countries.created[0].Code != "CH" {
		t.Fatalf("derived code = %q, want CH", countries.created[0].Code)
	}
	if countries.created[0].NameEN != "china" {
		t.Fatalf("display name = %q, want first-seen spelling", countries.created[0].NameEN)
	}
	if r.Created.Countries != 1 {
		t.Fatalf("Created.Countries = %d, want 1", r.Created.Countries)
	}
}

func TestCountryCodeCollisionGetsCounterSuffix(t *testing.T) {
	countries := newStubCountryRepo(domain.Country{ID: 1, Code: "CH", NameEN: "China"})
	r := newTestResolver(t, countries, nil, nil, nil)
	ctx := context.Background()

	if _, err := r.Country(ctx, "Chad"); err != nil {
		t.Fatalf("Country(Chad): %v", err)
	}
	if _, err := r.Country(ctx, "Chile"); err != nil {
		t.Fatalf("Country(Chile): %v", err)
	}

	if len(countries.created) != 2 {
		t.Fatalf("created %d countries, want 2", len(countries.created))
	}
	if countries.created[0].Code != "CH1" {
		t.Fatalf("first collision code = %q, want CH1", countries.created[0].Code)
	}
	if countries.created[1].Code != "CH2" {
		t.Fatalf("second collision code = %q, want CH2", countries.created[1].Code)
	}
}

func TestCountryPreloadedNameMatchesWithoutCreate(t *testing.T) {
	countries := newStubCountryRepo(domain.Country{ID: 7, Code: "DE", NameEN: "Germany"})
	r := newTestResolver(t, countries, nil, nil, nil)

	id, err := r.Country(context.Background(), "germany")
	if err != nil {
		t.Fatalf("Country(germany): %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want preloaded 7", id)
	}
	if len(countries.created) != 0 {
		t.Fatalf("created %d countries, want 0", len(countries.created))
	}
}

func TestCountryBlankCollapsesToUnknown(t *testing.T) {
	countries := newStubCountryRepo()
	r := newTestResolver(t, countries, nil, nil, nil)
	ctx := context.Background()

	first, err := r.Country(ctx, "")
	if err != nil {
		t.Fatalf("Country(blank): %v", err)
	}
	second, err := r.Country(ctx, "   ")
	if err != nil {
		t.Fatalf("Country(spaces): %v", err)
	}
	if first != second {
		t.Fatalf("blank country ids differ: %d vs %d", first, second)
	}
	if len(countries.created) != 1 || countries.created[0].NameEN != "UNKNOWN" {
		t.Fatalf("want a single UNKNOWN country, got %+v", countries.created)
	}
}

func TestPortKeyStripsPunctuation(t *testing.T) {
	ports := &stubPortRepo{}
	r := newTestResolver(t, nil, ports, nil, nil)
	ctx := context.Background()
	countryID := int64(3)

	first, err := r.Port(ctx, "SHA (Shanghai)", &countryID)
	if err != nil {
		t.Fatalf("Port: %v", err)
	}
	second, err := r.Port(ctx, "sha-shanghai", &countryID)
	if err != nil {
		t.Fatalf("Port: %v", err)
	}
	if first != second {
		t.Fatalf("equivalent port spellings got distinct ids: %d vs %d", first, second)
	}

	if len(ports.created) != 1 {
		t.Fatalf("created %d ports, want 1", len(ports.created))
	}
	created := ports.created[0]
	if created.Code != "SHASHANGHAI" {
		t.Fatalf("port code = %q, want SHASHANGHAI", created.Code)
	}
	if created.Name != "SHA (Shanghai)" {
		t.Fatalf("port name = %q, want first-seen spelling", created.Name)
	}
	if created.Type != domain.PortTypeSea {
		t.Fatalf("port type = %q, want %q", created.Type, domain.PortTypeSea)
	}
	if created.CountryID == nil || *created.CountryID != countryID {
		t.Fatalf("port country = %v, want %d", created.CountryID, countryID)
	}
}

func TestPortPreloadedCodeHits(t *testing.T) {
	ports := &stubPortRepo{rows: []domain.Port{{ID: 42, Code: "PVG", Name: "Shanghai Pudong"}}}
	r := newTestResolver(t, nil, ports, nil, nil)

	id, err := r.Port(context.Background(), "pvg", nil)
	if err != nil {
		t.Fatalf("Port: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want preloaded 42", id)
	}
	if len(ports.created) != 0 {
		t.Fatalf("created %d ports, want 0", len(ports.created))
	}
}

func TestSalesOfficeSentinelsCollapseToUnknown(t *testing.T) {
	offices := &stubOfficeRepo{}
	r := newTestResolver(t, nil, nil, offices, nil)
	ctx := context.Background()

	ids := make(map[int64]bool)
	for _, name := range []string{"", "-", "TBA", "  "} {
		id, err := r.SalesOffice(ctx, name)
		if err != nil {
			t.Fatalf("SalesOffice(%q): %v", name, err)
		}
		ids[id] = true
	}
	if len(ids) != 1 {
		t.Fatalf("sentinel office values mapped to %d ids, want 1", len(ids))
	}
	if len(offices.created) != 1 || offices.created[0].NameNorm != "UNKNOWN" {
		t.Fatalf("want a single UNKNOWN office, got %+v", offices.created)
	}
}

func TestCategoryCodeFuzzyMatch(t *testing.T) {
	categories := &stubCategoryRepo{rows: []domain.Category{
		{Code: "FRT", NameNorm: "FREIGHT"},
		{Code: "FRT_ORG", NameNorm: "FREIGHT + ORIGIN"},
		{Code: "ORG", NameNorm: "ORIGIN ONLY"},
	}}
	r := newTestResolver(t, nil, nil, nil, categories)

	cases := []struct {
		input string
		want  string
		found bool
	}{
		{"freight", "FRT", true},                // exact after normalization
		{"Freight + Origin charges", "FRT", true}, // cached label is a substring; load order wins
		{"origin", "FRT_ORG", true},             // substring of "FREIGHT + ORIGIN" first in load order
		{"warehousing", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		code, found := r.CategoryCode(tc.input)
		if found != tc.found || code != tc.want {
			t.Fatalf("CategoryCode(%q) = (%q, %v), want (%q, %v)", tc.input, code, found, tc.want, tc.found)
		}
	}
}

func TestFailedCreateIsNotCached(t *testing.T) {
	countries := newStubCountryRepo()
	r := New(countries, &stubPortRepo{}, &stubOfficeRepo{}, &stubCategoryRepo{}, failingSavepointer{})
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := r.Country(context.Background(), "France"); err == nil {
		t.Fatalf("expected create failure to surface")
	}
	if r.Created.Countries != 0 {
		t.Fatalf("Created.Countries = %d after failed insert, want 0", r.Created.Countries)
	}
	n, _, _, _ := r.CacheSizes()
	if n != 0 {
		t.Fatalf("country cache holds %d keys after failed insert, want 0", n)
	}
}
