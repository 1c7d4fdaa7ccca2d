package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/ristore-api/internal/common"
	"github.com/noah-isme/ristore-api/internal/obs"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

const relatedLimit = 4

// Service orchestrates catalog queries, payload assembly, and caching.
type Service struct {
	store            Store
	cache            *Cache
	validate         *validator.Validate
	defaultLimit     int
	maxLimit         int
	bestSellerRating float64
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store            Store
	Cache            *Cache
	Validator        *validator.Validate
	DefaultLimit     int
	MaxLimit         int
	BestSellerRating decimal.Decimal
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	v := cfg.Validator
	if v == nil {
		v = NewValidator()
	}
	rating := cfg.BestSellerRating
	if rating.IsZero() {
		rating = decimal.RequireFromString("4.0")
	}
	return &Service{
		store:            cfg.Store,
		cache:            cfg.Cache,
		validate:         v,
		defaultLimit:     defaultLimit,
		maxLimit:         maxLimit,
		bestSellerRating: rating.InexactFloat64(),
	}, nil
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	page, err := common.ParsePage(values, s.defaultLimit, s.maxLimit)
	if err != nil {
		return ListParams{}, err
	}
	params := ListParams{Page: page, Sort: SortNewest}
	params.Filter.CategorySlug = strings.TrimSpace(values.Get("category"))
	params.Filter.Search = strings.TrimSpace(values.Get("search"))

	if params.Filter.MinPrice, err = parsePrice(values, "minPrice"); err != nil {
		return params, err
	}
	if params.Filter.MaxPrice, err = parsePrice(values, "maxPrice"); err != nil {
		return params, err
	}
	if lo, hi := params.Filter.MinPrice, params.Filter.MaxPrice; lo != nil && hi != nil && *lo > *hi {
		return params, badRequest("minPrice", "minPrice cannot be greater than maxPrice", nil)
	}

	featured, err := parseFlag(values, "featured")
	if err != nil {
		return params, err
	}
	params.Filter.FeaturedOnly = featured

	isNew, err := parseFlag(values, "isNew")
	if err != nil {
		return params, err
	}
	params.Filter.NewOnly = isNew

	bestSellers, err := parseFlag(values, "bestSellers")
	if err != nil {
		return params, err
	}
	if bestSellers {
		rating := s.bestSellerRating
		params.Filter.MinRating = &rating
	}

	sort, ok := normalizeSort(values.Get("sort"))
	if !ok {
		return params, badRequest("sort", "sort must be one of newest, price-asc, price-desc, rating", nil)
	}
	params.Sort = sort
	return params, nil
}

// ListProducts returns one page of the filtered listing with the filtered
// total. Listings always hit the store.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ListResult, error) {
	switch {
	case params.Page.Limit < 1:
		params.Page.Limit = s.defaultLimit
	case params.Page.Limit > s.maxLimit:
		params.Page.Limit = s.maxLimit
	}
	if params.Page.Offset < 0 {
		params.Page.Offset = 0
	}
	if params.Sort == "" {
		params.Sort = SortNewest
	}

	total, err := s.store.CountProducts(ctx, params.Filter)
	if err != nil {
		obs.Inc(obs.CatalogListTotal, "error")
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}
	items := []Product{}
	if int64(params.Page.Offset) < total {
		items, err = s.store.ListProducts(ctx, params)
		if err != nil {
			obs.Inc(obs.CatalogListTotal, "error")
			return ListResult{}, fmt.Errorf("list products: %w", err)
		}
	}
	obs.Inc(obs.CatalogListTotal, "ok")
	return ListResult{Items: items, Total: total, Limit: params.Page.Limit, Offset: params.Page.Offset}, nil
}

// GetProduct returns the product for slug and up to four related products
// from the same category ranked by rating. Only the product itself is
// cached; related products are read from the store on every call so a new
// sibling shows up immediately.
func (s *Service) GetProduct(ctx context.Context, slug string) (ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetail{}, badRequest("slug", "slug is required", nil)
	}
	product, err := s.product(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}
	detail := ProductDetail{Product: product, Related: []Product{}}
	if product.Category != nil {
		related, err := s.store.ListRelated(ctx, product.Category.ID, product.ID, relatedLimit)
		if err != nil {
			return ProductDetail{}, fmt.Errorf("list related: %w", err)
		}
		detail.Related = related
	}
	return detail, nil
}

func (s *Service) product(ctx context.Context, slug string) (Product, error) {
	key := productKey(slug)
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, "product", key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, common.NotFound("product not found", err)
		}
		return Product{}, fmt.Errorf("get product by slug: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, product); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return product, nil
}

// ListCategories returns all categories ordered by name with product counts.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if ok, err := s.cache.GetJSON(ctx, "categories", categoriesKey, &cached); err == nil && ok {
		return cached, nil
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if err := s.cache.SetJSON(ctx, categoriesKey, categories); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("catalog cache write failed")
	}
	return categories, nil
}

// CreateProductInput is the admin payload for a new product.
type CreateProductInput struct {
	Title         string         `json:"title" validate:"required,max=200"`
	Description   string         `json:"description" validate:"max=5000"`
	Price         pricing.Money  `json:"price" validate:"gt=0"`
	OriginalPrice *pricing.Money `json:"originalPrice" validate:"omitempty,gt=0"`
	Image         string         `json:"image" validate:"required,max=2048"`
	Images        []string       `json:"images" validate:"max=12,dive,required,max=2048"`
	CategoryID    string         `json:"categoryId" validate:"omitempty,uuid"`
	ItemsLeft     int            `json:"itemsLeft" validate:"gte=0"`
	IsFeatured    bool           `json:"isFeatured"`
	IsNew         bool           `json:"isNew"`
	Tags          []string       `json:"tags" validate:"max=20,dive,required,max=40"`
}

// CreateProduct validates input, derives the slug from the title and
// persists the product.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Image = strings.TrimSpace(in.Image)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return Product{}, validationError(err)
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return Product{}, badRequest("title", "title must contain letters or digits", nil)
	}
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tags = append(tags, strings.ToLower(strings.TrimSpace(tag)))
	}
	product, err := s.store.CreateProduct(ctx, NewProduct{
		Title:         in.Title,
		Slug:          slug,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Image:         in.Image,
		Images:        in.Images,
		CategoryID:    in.CategoryID,
		ItemsLeft:     in.ItemsLeft,
		IsFeatured:    in.IsFeatured,
		IsNew:         in.IsNew,
		Tags:          tags,
	})
	switch {
	case errors.Is(err, ErrDuplicateSlug):
		return Product{}, common.NewAppError("DUPLICATE_SLUG", "a product with this title already exists", http.StatusConflict, err)
	case errors.Is(err, ErrUnknownCategory):
		return Product{}, badRequest("categoryId", "category does not exist", err)
	case err != nil:
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	if err := s.cache.Delete(ctx, categoriesKey, productKey(slug)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("catalog cache invalidation failed")
	}
	zerolog.Ctx(ctx).Info().Str("product_id", product.ID).Str("slug", product.Slug).Msg("product created")
	return product, nil
}

// Slugify lowercases title and joins its letter/digit runs with dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func parsePrice(values url.Values, field string) (*pricing.Money, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return nil, nil
	}
	m, err := pricing.ParseMoney(raw)
	if err != nil || m < 0 {
		return nil, badRequest(field, field+" must be a non-negative amount", err)
	}
	return &m, nil
}

func parseFlag(values url.Values, field string) (bool, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest(field, field+" must be true or false", err)
	}
	return b, nil
}

func normalizeSort(value string) (Sort, bool) {
	switch strings.TrimSpace(value) {
	case "", string(SortNewest):
		return SortNewest, true
	case string(SortPriceAsc), "priceAsc":
		return SortPriceAsc, true
	case string(SortPriceDesc), "priceDesc":
		return SortPriceDesc, true
	case string(SortRating):
		return SortRating, true
	default:
		return "", false
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		return common.BadRequest("INVALID_PRODUCT", field, fmt.Sprintf("%s failed %s validation", field, fe.Tag()), err)
	}
	return common.BadRequest("INVALID_PRODUCT", "", "invalid product payload", err)
}

func badRequest(field, message string, err error) *common.AppError {
	return common.BadRequest("BAD_REQUEST", field, message, err)
}
