package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/ristore-api/internal/common"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

var (
	// ErrNotFound is returned by a Store when no product matches.
	ErrNotFound = errors.New("catalog: not found")
	// ErrDuplicateSlug is returned by a Store when a product slug is taken.
	ErrDuplicateSlug = errors.New("catalog: duplicate slug")
	// ErrUnknownCategory is returned by a Store when a category id does not exist.
	ErrUnknownCategory = errors.New("catalog: unknown category")
)

// Sort selects the ordering of a product listing.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortRating    Sort = "rating"
)

// CategoryRef is the category summary embedded in product payloads.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is the public product payload.
type Product struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Slug               string         `json:"slug"`
	Description        string         `json:"description,omitempty"`
	Price              pricing.Money  `json:"price"`
	OriginalPrice      *pricing.Money `json:"originalPrice,omitempty"`
	DiscountPercentage *int           `json:"discountPercentage,omitempty"`
	Rating             float64        `json:"rating"`
	Reviews            int            `json:"reviews"`
	ItemsLeft          int            `json:"itemsLeft"`
	TotalItems         int            `json:"totalItems"`
	Image              string         `json:"image"`
	Images             []string       `json:"images"`
	Tags               []string       `json:"tags"`
	IsFeatured         bool           `json:"isFeatured"`
	IsNew              bool           `json:"isNew"`
	Category           *CategoryRef   `json:"category,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// Category is the public category payload.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Image        string `json:"image,omitempty"`
	ProductCount int64  `json:"productCount"`
}

// Filter narrows a product listing. Nil and zero fields do not filter.
type Filter struct {
	CategorySlug string
	MinPrice     *pricing.Money
	MaxPrice     *pricing.Money
	Search       string
	FeaturedOnly bool
	NewOnly      bool
	MinRating    *float64
}

// ListParams is a parsed product listing request.
type ListParams struct {
	Filter Filter
	Sort   Sort
	Page   common.Page
}

// ListResult is one page of a filtered listing plus the filtered total.
type ListResult struct {
	Items  []Product
	Total  int64
	Limit  int
	Offset int
}

// HasMore reports whether rows remain beyond this page.
func (r ListResult) HasMore() bool {
	return common.Page{Limit: r.Limit, Offset: r.Offset}.HasMore(len(r.Items), r.Total)
}

// ProductDetail is a single product with its related products.
type ProductDetail struct {
	Product Product   `json:"data"`
	Related []Product `json:"relatedProducts"`
}

// NewProduct is a validated product ready for insertion.
type NewProduct struct {
	Title         string
	Slug          string
	Description   string
	Price         pricing.Money
	OriginalPrice *pricing.Money
	Image         string
	Images        []string
	CategoryID    string
	ItemsLeft     int
	IsFeatured    bool
	IsNew         bool
	Tags          []string
}

// Store is the catalog persistence boundary.
type Store interface {
	CountProducts(ctx context.Context, filter Filter) (int64, error)
	ListProducts(ctx context.Context, params ListParams) ([]Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	ListRelated(ctx context.Context, categoryID, excludeID string, limit int) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
}
