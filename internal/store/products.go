package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/ristore-api/internal/catalog"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const selectProducts = `
SELECT p.id::text, p.title, p.slug, p.description, p.price_minor,
       p.original_price_minor, p.discount_percentage, p.rating::float8,
       p.reviews, p.items_left, p.total_items, p.image, p.images, p.tags,
       p.is_featured, p.is_new, c.id::text, c.name, c.slug, p.created_at
FROM products p
LEFT JOIN categories c ON c.id = p.category_id`

const filterClause = `
WHERE (@category_slug::text IS NULL OR c.slug = @category_slug)
  AND (@min_price::bigint IS NULL OR p.price_minor >= @min_price)
  AND (@max_price::bigint IS NULL OR p.price_minor <= @max_price)
  AND (NOT @featured_only::boolean OR p.is_featured)
  AND (NOT @new_only::boolean OR p.is_new)
  AND (@min_rating::float8 IS NULL OR p.rating >= @min_rating)
  AND (@search_pattern::text IS NULL
       OR p.title ILIKE @search_pattern
       OR p.description ILIKE @search_pattern
       OR @search_tag::text = ANY(p.tags))`

const orderClause = `
ORDER BY
  CASE WHEN @sort::text = 'price-asc' THEN p.price_minor END ASC,
  CASE WHEN @sort::text = 'price-desc' THEN p.price_minor END DESC,
  CASE WHEN @sort::text = 'rating' THEN p.rating END DESC,
  p.created_at DESC, p.id
LIMIT @limit OFFSET @offset`

// Postgres implements catalog.Store and the payment price source on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New wraps pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// CountProducts returns the number of products matching filter.
func (s *Postgres) CountProducts(ctx context.Context, filter catalog.Filter) (int64, error) {
	query := `SELECT count(*) FROM products p LEFT JOIN categories c ON c.id = p.category_id` + filterClause
	var total int64
	if err := s.pool.QueryRow(ctx, query, filterArgs(filter)).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListProducts returns one sorted page of products matching params.Filter.
func (s *Postgres) ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error) {
	args := filterArgs(params.Filter)
	args["sort"] = string(params.Sort)
	args["limit"] = params.Page.Limit
	args["offset"] = params.Page.Offset
	rows, err := s.pool.Query(ctx, selectProducts+filterClause+orderClause, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProductRow)
}

// GetProductBySlug returns catalog.ErrNotFound when slug is unknown.
func (s *Postgres) GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	rows, err := s.pool.Query(ctx, selectProducts+` WHERE p.slug = @slug`, pgx.NamedArgs{"slug": slug})
	if err != nil {
		return catalog.Product{}, err
	}
	product, err := pgx.CollectExactlyOneRow(rows, scanProductRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return product, err
}

// ListRelated returns up to limit products in categoryID other than excludeID, best rated first.
func (s *Postgres) ListRelated(ctx context.Context, categoryID, excludeID string, limit int) ([]catalog.Product, error) {
	query := selectProducts + `
WHERE p.category_id = @category_id::uuid AND p.id <> @exclude_id::uuid
ORDER BY p.rating DESC, p.created_at DESC
LIMIT @limit`
	rows, err := s.pool.Query(ctx, query, pgx.NamedArgs{
		"category_id": categoryID,
		"exclude_id":  excludeID,
		"limit":       limit,
	})
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProductRow)
}

// ListCategories returns every category ordered by name with its product count.
func (s *Postgres) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.pool.Query(ctx, `
SELECT c.id::text, c.name, c.slug, c.image, count(p.id)
FROM categories c
LEFT JOIN products p ON p.category_id = c.id
GROUP BY c.id
ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.ProductCount)
		return c, err
	})
}

// CreateProduct inserts p and returns the stored row.
func (s *Postgres) CreateProduct(ctx context.Context, p catalog.NewProduct) (catalog.Product, error) {
	var categoryID *string
	if p.CategoryID != "" {
		categoryID = &p.CategoryID
	}
	var original *int64
	var discount *int
	if p.OriginalPrice != nil {
		v := int64(*p.OriginalPrice)
		original = &v
		if *p.OriginalPrice > p.Price {
			pct := int((int64(*p.OriginalPrice-p.Price) * 100) / int64(*p.OriginalPrice))
			discount = &pct
		}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO products (title, slug, description, price_minor, original_price_minor,
                      discount_percentage, items_left, total_items, image, images, tags,
                      is_featured, is_new, category_id)
VALUES (@title, @slug, @description, @price, @original_price, @discount,
        @items_left, @items_left, @image, @images, @tags, @is_featured, @is_new,
        @category_id::uuid)`,
		pgx.NamedArgs{
			"title":          p.Title,
			"slug":           p.Slug,
			"description":    p.Description,
			"price":          int64(p.Price),
			"original_price": original,
			"discount":       discount,
			"items_left":     p.ItemsLeft,
			"image":          p.Image,
			"images":         images,
			"tags":           tags,
			"is_featured":    p.IsFeatured,
			"is_new":         p.IsNew,
			"category_id":    categoryID,
		})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrDuplicateSlug, p.Slug)
			case pgForeignKeyViolation:
				return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrUnknownCategory, p.CategoryID)
			}
		}
		return catalog.Product{}, err
	}
	return s.GetProductBySlug(ctx, p.Slug)
}

// UnitPrices reads authoritative prices for ids, matching either the product
// UUID or its slug. Ids with no product are absent from the result.
func (s *Postgres) UnitPrices(ctx context.Context, ids []string) (pricing.PriceTable, error) {
	table := make(pricing.PriceTable, len(ids))
	if len(ids) == 0 {
		return table, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT p.id::text, p.slug, p.price_minor
FROM products p
WHERE p.id::text = ANY(@ids) OR p.slug = ANY(@ids)`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, slug string
		var price int64
		if err := rows.Scan(&id, &slug, &price); err != nil {
			return nil, err
		}
		table[id] = pricing.Money(price)
		table[slug] = pricing.Money(price)
	}
	return table, rows.Err()
}

func filterArgs(f catalog.Filter) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"category_slug":  nullableString(f.CategorySlug),
		"min_price":      nullableMoney(f.MinPrice),
		"max_price":      nullableMoney(f.MaxPrice),
		"featured_only":  f.FeaturedOnly,
		"new_only":       f.NewOnly,
		"min_rating":     f.MinRating,
		"search_pattern": nil,
		"search_tag":     nil,
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		args["search_pattern"] = "%" + escapeLike(term) + "%"
		args["search_tag"] = strings.ToLower(term)
	}
	return args
}

func scanProductRow(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p                       catalog.Product
		price                   int64
		original                *int64
		catID, catName, catSlug *string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &price, &original,
		&p.DiscountPercentage, &p.Rating, &p.Reviews, &p.ItemsLeft, &p.TotalItems,
		&p.Image, &p.Images, &p.Tags, &p.IsFeatured, &p.IsNew,
		&catID, &catName, &catSlug, &p.CreatedAt)
	if err != nil {
		return catalog.Product{}, err
	}
	p.Price = pricing.Money(price)
	if original != nil {
		m := pricing.Money(*original)
		p.OriginalPrice = &m
	}
	if catID != nil {
		p.Category = &catalog.CategoryRef{ID: *catID, Name: deref(catName), Slug: deref(catSlug)}
	}
	return p, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nullableMoney(m *pricing.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
