package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/noah-isme/ristore-api/internal/store"
)

type seedProduct struct {
	Title         string
	Slug          string
	Category      string
	PriceMinor    int64
	OriginalMinor int64
	Rating        float64
	Reviews       int
	ItemsLeft     int
	TotalItems    int
	Image         string
	Tags          []string
	Featured      bool
	New           bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := store.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	catIDs := seedCategories(db)
	seedProducts(db, catIDs)

	log.Println("Seeding completed successfully!")
}

func seedCategories(db *sql.DB) map[string]string {
	categories := []struct {
		Name  string
		Slug  string
		Image string
	}{
		{"Rings", "rings", "https://images.unsplash.com/photo-1605100804763-247f67b3557e?w=800"},
		{"Necklaces", "necklaces", "https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f?w=800"},
		{"Earrings", "earrings", "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=800"},
		{"Bracelets", "bracelets", "https://images.unsplash.com/photo-1611591437281-460bfbe1220a?w=800"},
		{"Watches", "watches", "https://images.unsplash.com/photo-1524592094714-0f0654e20314?w=800"},
	}

	fmt.Println("Seeding Categories...")
	ids := make(map[string]string, len(categories))
	for _, c := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug, image)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image
			RETURNING id;
		`, c.Name, c.Slug, c.Image).Scan(&id)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", c.Name, err)
			continue
		}
		ids[c.Slug] = id
	}
	return ids
}

func seedProducts(db *sql.DB, catIDs map[string]string) {
	products := []seedProduct{
		{"Classic Solitaire Diamond Ring", "classic-solitaire-diamond-ring", "rings", 129999, 149999, 4.8, 212, 12, 40, "https://images.unsplash.com/photo-1605100804763-247f67b3557e?w=800", []string{"diamond", "engagement", "gold"}, true, false},
		{"Rose Gold Stackable Band", "rose-gold-stackable-band", "rings", 4999, 0, 4.5, 98, 60, 120, "https://images.unsplash.com/photo-1603561596112-0a132b757442?w=800", []string{"rose-gold", "minimal"}, false, true},
		{"Sapphire Halo Ring", "sapphire-halo-ring", "rings", 89900, 99900, 4.6, 77, 8, 25, "https://images.unsplash.com/photo-1598560917505-59a3ad559071?w=800", []string{"sapphire", "halo"}, true, false},
		{"Freshwater Pearl Pendant", "freshwater-pearl-pendant", "necklaces", 7999, 0, 4.4, 143, 35, 80, "https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f?w=800", []string{"pearl", "silver"}, false, true},
		{"Gold Rope Chain", "gold-rope-chain", "necklaces", 24999, 27999, 4.7, 301, 20, 60, "https://images.unsplash.com/photo-1611085583191-a3b181a88401?w=800", []string{"gold", "chain"}, true, false},
		{"Emerald Drop Earrings", "emerald-drop-earrings", "earrings", 35999, 0, 4.9, 54, 6, 15, "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=800", []string{"emerald", "statement"}, true, true},
		{"Silver Hoop Earrings", "silver-hoop-earrings", "earrings", 2999, 3999, 4.2, 410, 90, 200, "https://images.unsplash.com/photo-1630019852942-f89202989a59?w=800", []string{"silver", "hoops", "everyday"}, false, false},
		{"Tennis Bracelet", "tennis-bracelet", "bracelets", 54999, 64999, 4.8, 120, 10, 30, "https://images.unsplash.com/photo-1611591437281-460bfbe1220a?w=800", []string{"diamond", "bracelet"}, true, false},
		{"Charm Bracelet", "charm-bracelet", "bracelets", 5999, 0, 3.9, 66, 45, 90, "https://images.unsplash.com/photo-1573408301185-9146fe634ad0?w=800", []string{"charm", "silver", "gift"}, false, true},
		{"Automatic Dress Watch", "automatic-dress-watch", "watches", 79999, 0, 4.5, 88, 14, 30, "https://images.unsplash.com/photo-1524592094714-0f0654e20314?w=800", []string{"watch", "leather"}, false, false},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		catID, ok := catIDs[p.Category]
		if !ok {
			log.Printf("Missing category ID for %s", p.Category)
			continue
		}
		var original, discount any
		if p.OriginalMinor > p.PriceMinor {
			original = p.OriginalMinor
			discount = int((p.OriginalMinor - p.PriceMinor) * 100 / p.OriginalMinor)
		}
		_, err := db.Exec(`
			INSERT INTO products (title, slug, price_minor, original_price_minor, discount_percentage,
				rating, reviews, items_left, total_items, image, images, tags, is_featured, is_new, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (slug) DO UPDATE SET
				price_minor = EXCLUDED.price_minor,
				original_price_minor = EXCLUDED.original_price_minor,
				discount_percentage = EXCLUDED.discount_percentage,
				items_left = EXCLUDED.items_left;
		`, p.Title, p.Slug, p.PriceMinor, original, discount,
			p.Rating, p.Reviews, p.ItemsLeft, p.TotalItems, p.Image,
			pq.Array([]string{p.Image}), pq.Array(p.Tags), p.Featured, p.New, catID)
		if err != nil {
			log.Printf("Failed to upsert product %s: %v", p.Title, err)
		}
	}
}
