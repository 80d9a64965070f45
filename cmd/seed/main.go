// Command seed creates the catalog schema and loads products from a JSON
// dump (dummyjson.com format: {"products": [...]}) into Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/storechat/server/internal/agent/model"
	pkgpostgres "github.com/storechat/server/pkg/postgres"
)

type seedConfig struct {
	Postgres  pkgpostgres.Config
	Embedding model.EmbeddingConfig
}

type productDump struct {
	Products []seedProduct `json:"products"`
}

type seedProduct struct {
	ID                   int             `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Price                float64         `json:"price"`
	DiscountPercentage   float64         `json:"discountPercentage"`
	Rating               float64         `json:"rating"`
	Stock                int             `json:"stock"`
	Brand                string          `json:"brand"`
	SKU                  string          `json:"sku"`
	Weight               int             `json:"weight"`
	WarrantyInformation  string          `json:"warrantyInformation"`
	ShippingInformation  string          `json:"shippingInformation"`
	AvailabilityStatus   string          `json:"availabilityStatus"`
	ReturnPolicy         string          `json:"returnPolicy"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity"`
	Dimensions           json.RawMessage `json:"dimensions"`
	Meta                 json.RawMessage `json:"meta"`
	Thumbnail            string          `json:"thumbnail"`
	Tags                 []string        `json:"tags"`
	Reviews              []seedReview    `json:"reviews"`
}

type seedReview struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	Date          string `json:"date"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
}

func main() {
	var (
		dataPath     = flag.String("data", "products.json", "path to the product dump")
		createTables = flag.Bool("create-tables", true, "create schema before loading")
	)
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg seedConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	ctx := context.Background()
	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	if *createTables {
		if err := createSchema(ctx, pool, cfg.Embedding.Dimensions); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		log.Println("Schema created")
	}

	dump, err := readDump(*dataPath)
	if err != nil {
		log.Fatalf("Failed to read product dump: %v", err)
	}

	if err := loadProducts(ctx, pool, dump.Products); err != nil {
		log.Fatalf("Failed to load products: %v", err)
	}
	log.Printf("Load complete: %d products", len(dump.Products))
}

func readDump(path string) (*productDump, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dump productDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &dump, nil
}

func createSchema(ctx context.Context, pool *pgxpool.Pool, embeddingDims int) error {
	statements := []string{
		`create extension if not exists vector`,
		`create table if not exists products (
			id int primary key,
			title text,
			description text,
			category text,
			price numeric,
			discount_percentage numeric,
			rating numeric,
			stock int,
			brand text,
			sku text,
			weight int,
			warranty_information text,
			shipping_information text,
			availability_status text,
			return_policy text,
			minimum_order_quantity int,
			dimensions jsonb,
			meta jsonb,
			thumbnail text
		)`,
		`create table if not exists product_tags (
			product_id int references products(id) on delete cascade,
			tag text,
			unique (product_id, tag)
		)`,
		`create table if not exists product_reviews (
			id bigserial primary key,
			product_id int references products(id) on delete cascade,
			rating int,
			comment text,
			date timestamptz,
			reviewer_name text,
			reviewer_email text
		)`,
		`create table if not exists checkpoints (
			thread_id text primary key,
			state jsonb not null,
			updated_at timestamptz not null default now()
		)`,
		fmt.Sprintf(`create table if not exists tool_embeddings (
			name text primary key,
			description text not null,
			embedding vector(%d) not null
		)`, embeddingDims),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func loadProducts(ctx context.Context, pool *pgxpool.Pool, products []seedProduct) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(
			`insert into products (
				id, title, description, category, price, discount_percentage, rating, stock,
				brand, sku, weight, warranty_information, shipping_information, availability_status,
				return_policy, minimum_order_quantity, dimensions, meta, thumbnail
			) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			on conflict (id) do update set
				title = excluded.title,
				description = excluded.description,
				category = excluded.category,
				price = excluded.price,
				discount_percentage = excluded.discount_percentage,
				rating = excluded.rating,
				stock = excluded.stock,
				brand = excluded.brand,
				sku = excluded.sku,
				weight = excluded.weight,
				warranty_information = excluded.warranty_information,
				shipping_information = excluded.shipping_information,
				availability_status = excluded.availability_status,
				return_policy = excluded.return_policy,
				minimum_order_quantity = excluded.minimum_order_quantity,
				dimensions = excluded.dimensions,
				meta = excluded.meta,
				thumbnail = excluded.thumbnail`,
			p.ID, p.Title, p.Description, p.Category, p.Price, p.DiscountPercentage,
			p.Rating, p.Stock, p.Brand, p.SKU, p.Weight, p.WarrantyInformation,
			p.ShippingInformation, p.AvailabilityStatus, p.ReturnPolicy,
			p.MinimumOrderQuantity, p.Dimensions, p.Meta, p.Thumbnail,
		)

		for _, tag := range p.Tags {
			batch.Queue(
				`insert into product_tags (product_id, tag) values ($1, $2) on conflict do nothing`,
				p.ID, tag,
			)
		}

		for _, r := range p.Reviews {
			batch.Queue(
				`insert into product_reviews (product_id, rating, comment, date, reviewer_name, reviewer_email)
				 values ($1, $2, $3, $4, $5, $6)`,
				p.ID, r.Rating, r.Comment, r.Date, r.ReviewerName, r.ReviewerEmail,
			)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
