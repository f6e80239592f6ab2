// Package resolver maps free-text dimension references from the tracker sheet
// onto surrogate ids, creating dimension rows on first sight of an unseen
// natural key. All lookups after the initial load are served from in-memory
// caches owned by one import run; processing is strictly sequential, so a new
// row's id is always cached before the next occurrence is resolved.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/normalize"
	"freight-enquiry-importer/internal/repository"
)

// unknownKey is the fallback natural key for blank or sentinel dimension
// values. Each dimension keeps its own unknown row.
const unknownKey = "UNKNOWN"

// Savepointer fences a dimension insert so that its failure does not abort
// the surrounding batch transaction. db.Session implements it.
type Savepointer interface {
	WithSavepoint(ctx context.Context, fn func(context.Context) error) error
}

// dimensionCache is an insertion-ordered natural-key → id mapping shared by
// all dimension types. A single id may be stored under several alias keys.
type dimensionCache struct {
	ids  map[string]int64
	keys []string
}

func newDimensionCache() *dimensionCache {
	return &dimensionCache{ids: make(map[string]int64)}
}

func (c *dimensionCache) lookup(key string) (int64, bool) {
	id, ok := c.ids[key]
	return id, ok
}

func (c *dimensionCache) store(key string, id int64) {
	if _, ok := c.ids[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.ids[key] = id
}

func (c *dimensionCache) len() int {
	return len(c.keys)
}

// Created tallies dimension rows created during one run.
type Created struct {
	Countries    int
	Ports        int
	SalesOffices int
}

// Resolver owns the dimension caches for one import run.
type Resolver struct {
	countryRepo  repository.CountryRepository
	portRepo     repository.PortRepository
	officeRepo   repository.SalesOfficeRepository
	categoryRepo repository.CategoryRepository
	sp           Savepointer

	countries *dimensionCache
	ports     *dimensionCache
	offices   *dimensionCache

	categoryCodes map[string]string
	categoryOrder []string

	// Created is read by the orchestrator when the run report is assembled.
	Created Created
}

// New creates a resolver with empty caches. sp may be nil when no batch
// transaction is in play (tests, master import).
func New(
	countryRepo repository.CountryRepository,
	portRepo repository.PortRepository,
	officeRepo repository.SalesOfficeRepository,
	categoryRepo repository.CategoryRepository,
	sp Savepointer,
) *Resolver {
	return &Resolver{
		countryRepo:   countryRepo,
		portRepo:      portRepo,
		officeRepo:    officeRepo,
		categoryRepo:  categoryRepo,
		sp:            sp,
		countries:     newDimensionCache(),
		ports:         newDimensionCache(),
		offices:       newDimensionCache(),
		categoryCodes: make(map[string]string),
	}
}

// Load bulk-reads the current persisted dimension state into the caches, one
// read per dimension table.
func (r *Resolver) Load(ctx context.Context) error {
	countries, err := r.countryRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, country := range countries {
		r.countries.store(country.Code, country.ID)
		r.countries.store(normalize.Upper(country.NameEN), country.ID)
	}

	ports, err := r.portRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, port := range ports {
		r.ports.store(port.Code, port.ID)
	}

	offices, err := r.officeRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, office := range offices {
		r.offices.store(office.NameNorm, office.ID)
	}

	categories, err := r.categoryRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		if _, ok := r.categoryCodes[category.NameNorm]; !ok {
			r.categoryOrder = append(r.categoryOrder, category.NameNorm)
		}
		r.categoryCodes[category.NameNorm] = category.Code
	}

	return nil
}

// CacheSizes reports how many distinct keys each cache holds, for run logs.
func (r *Resolver) CacheSizes() (countries, ports, offices, categories int) {
	return r.countries.len(), r.ports.len(), r.offices.len(), len(r.categoryOrder)
}

// Country resolves a free-text country name to an id, creating the row on a
// cache miss. A new country gets a short code derived from the name's first
// characters, suffixed with a counter until it collides with nothing.
func (r *Resolver) Country(ctx context.Context, name string) (int64, error) {
	key := normalize.Upper(name)
	if key == "" {
		key = unknownKey
	}

	if id, ok := r.countries.lookup(key); ok {
		return id, nil
	}

	code := key
	if keyRunes := []rune(key); len(keyRunes) >= 2 {
		code = string(keyRunes[:2])
	}
	baseCode := code
	for counter := 1; ; counter++ {
		exists, err := r.countryRepo.CodeExists(ctx, code)
		if err != nil {
			return 0, err
		}
		if !exists {
			break
		}
		code = fmt.Sprintf("%s%d", baseCode, counter)
	}

	displayName := normalize.CleanString(name)
	if displayName == "" {
		displayName = key
	}

	id, err := r.create(ctx, func(ctx context.Context) (int64, error) {
		return r.countryRepo.Create(ctx, domain.Country{Code: code, NameEN: displayName})
	})
	if err != nil {
		return 0, err
	}

	// Both the name key and the derived code alias the same row.
	r.countries.store(key, id)
	r.countries.store(code, id)
	r.Created.Countries++

	return id, nil
}

// Port resolves a free-text port code to an id, creating the row on a cache
// miss. The natural key strips all non-alphanumerics and uppercases, so
// "SHA (SHANGHAI)" and "SHA-SHANGHAI" collide; no derived-code renaming is
// needed because the key itself is the stored code.
func (r *Resolver) Port(ctx context.Context, code string, countryID *int64) (int64, error) {
	display := normalize.CleanString(code)
	if display == "" {
		display = unknownKey
	}

	key := portKey(display)
	if key == "" {
		key = unknownKey
	}

	if id, ok := r.ports.lookup(key); ok {
		return id, nil
	}

	id, err := r.create(ctx, func(ctx context.Context) (int64, error) {
		return r.portRepo.Create(ctx, domain.Port{
			Code:      key,
			Name:      display,
			Type:      domain.PortTypeSea,
			CountryID: countryID,
		})
	})
	if err != nil {
		return 0, err
	}

	r.ports.store(key, id)
	r.Created.Ports++

	return id, nil
}

// SalesOffice resolves a free-text office name to an id, creating the row on
// a cache miss. Sentinel values collapse to the unknown office.
func (r *Resolver) SalesOffice(ctx context.Context, name string) (int64, error) {
	display := normalize.CleanString(name)
	if display == "" || display == "-" || display == "TBA" {
		display = unknownKey
	}

	key := normalize.Upper(display)
	if id, ok := r.offices.lookup(key); ok {
		return id, nil
	}

	id, err := r.create(ctx, func(ctx context.Context) (int64, error) {
		return r.officeRepo.Create(ctx, domain.SalesOffice{Name: display, NameNorm: key})
	})
	if err != nil {
		return 0, err
	}

	r.offices.store(key, id)
	r.Created.SalesOffices++

	return id, nil
}

// CategoryCode resolves a free-text category label to a dictionary code.
// Exact normalized match first, then a substring match in either direction
// against cached labels, walking them in load order; category wording in the
// sheet varies too much for exact matching alone. No match yields ("", false)
// and the caller decides the default.
func (r *Resolver) CategoryCode(name string) (string, bool) {
	key := normalize.Upper(name)
	if key == "" {
		return "", false
	}

	if code, ok := r.categoryCodes[key]; ok {
		return code, true
	}

	for _, cached := range r.categoryOrder {
		if strings.Contains(cached, key) || strings.Contains(key, cached) {
			return r.categoryCodes[cached], true
		}
	}

	return "", false
}

// create runs an insert inside a savepoint when one is available, so a failed
// dimension insert fails only the row being processed.
func (r *Resolver) create(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	if r.sp == nil {
		return fn(ctx)
	}
	var id int64
	err := r.sp.WithSavepoint(ctx, func(ctx context.Context) error {
		var innerErr error
		id, innerErr = fn(ctx)
		return innerErr
	})
	return id, err
}

// portKey reduces a port reference to uppercase alphanumerics.
func portKey(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
