package catalog_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/ristore-api/internal/catalog"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

// fakeStore is an in-memory catalog.Store applying the same predicates as
// the SQL store.
type fakeStore struct {
	mu         sync.Mutex
	products   []catalog.Product
	categories []catalog.Category
	listCalls  int
	slugCalls  int
	relCalls   int
	catCalls   int
}

func newFakeStore() *fakeStore {
	rings := catalog.CategoryRef{ID: "11111111-1111-1111-1111-111111111111", Name: "Rings", Slug: "rings"}
	necklaces := catalog.CategoryRef{ID: "22222222-2222-2222-2222-222222222222", Name: "Necklaces", Slug: "necklaces"}
	s := &fakeStore{
		categories: []catalog.Category{
			{ID: necklaces.ID, Name: necklaces.Name, Slug: necklaces.Slug},
			{ID: rings.ID, Name: rings.Name, Slug: rings.Slug},
		},
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 57; i++ {
		s.products = append(s.products, catalog.Product{
			ID:        fmt.Sprintf("ring-%02d", i),
			Title:     fmt.Sprintf("Gold Ring %02d", i),
			Slug:      fmt.Sprintf("gold-ring-%02d", i),
			Price:     pricing.Money(1000 + i*100),
			Rating:    float64(i%5) + 0.5,
			Tags:      []string{"gold"},
			Category:  &rings,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	for i := 0; i < 5; i++ {
		s.products = append(s.products, catalog.Product{
			ID:         fmt.Sprintf("necklace-%d", i),
			Title:      fmt.Sprintf("Pearl Necklace %d", i),
			Slug:       fmt.Sprintf("pearl-necklace-%d", i),
			Price:      pricing.Money(20000 + i),
			Rating:     4.9,
			IsFeatured: i == 0,
			IsNew:      i >= 3,
			Tags:       []string{"pearl"},
			Category:   &necklaces,
			CreatedAt:  base,
		})
	}
	return s
}

func (s *fakeStore) matches(p catalog.Product, f catalog.Filter) bool {
	if f.CategorySlug != "" && (p.Category == nil || p.Category.Slug != f.CategorySlug) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if f.NewOnly && !p.IsNew {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if term := strings.ToLower(f.Search); term != "" {
		hit := strings.Contains(strings.ToLower(p.Title), term) || strings.Contains(strings.ToLower(p.Description), term)
		for _, tag := range p.Tags {
			hit = hit || tag == term
		}
		if !hit {
			return false
		}
	}
	return true
}

func (s *fakeStore) filtered(f catalog.Filter) []catalog.Product {
	out := []catalog.Product{}
	for _, p := range s.products {
		if s.matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func (s *fakeStore) CountProducts(_ context.Context, f catalog.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filtered(f))), nil
}

func (s *fakeStore) ListProducts(_ context.Context, params catalog.ListParams) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	items := s.filtered(params.Filter)
	sort.SliceStable(items, func(i, j int) bool {
		switch params.Sort {
		case catalog.SortPriceAsc:
			return items[i].Price < items[j].Price
		case catalog.SortPriceDesc:
			return items[i].Price > items[j].Price
		case catalog.SortRating:
			return items[i].Rating > items[j].Rating
		default:
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
	})
	start := min(params.Page.Offset, len(items))
	end := min(start+params.Page.Limit, len(items))
	return items[start:end], nil
}

func (s *fakeStore) GetProductBySlug(_ context.Context, slug string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slugCalls++
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (s *fakeStore) ListRelated(_ context.Context, categoryID, excludeID string, limit int) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relCalls++
	out := []catalog.Product{}
	for _, p := range s.products {
		if p.Category != nil && p.Category.ID == categoryID && p.ID != excludeID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) ListCategories(context.Context) ([]catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catCalls++
	out := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		for _, p := range s.products {
			if p.Category != nil && p.Category.ID == c.ID {
				c.ProductCount++
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) CreateProduct(_ context.Context, np catalog.NewProduct) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == np.Slug {
			return catalog.Product{}, catalog.ErrDuplicateSlug
		}
	}
	var ref *catalog.CategoryRef
	if np.CategoryID != "" {
		for _, c := range s.categories {
			if c.ID == np.CategoryID {
				ref = &catalog.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
			}
		}
		if ref == nil {
			return catalog.Product{}, catalog.ErrUnknownCategory
		}
	}
	p := catalog.Product{
		ID:         fmt.Sprintf("new-%d", len(s.products)),
		Title:      np.Title,
		Slug:       np.Slug,
		Price:      np.Price,
		Image:      np.Image,
		Tags:       np.Tags,
		ItemsLeft:  np.ItemsLeft,
		IsFeatured: np.IsFeatured,
		IsNew:      np.IsNew,
		Category:   ref,
		CreatedAt:  time.Now().UTC(),
	}
	s.products = append(s.products, p)
	return p, nil
}
