package repo

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storechat/server/internal/agent/model"
	errx "github.com/storechat/server/internal/core/error"
	logx "github.com/storechat/server/pkg/logger"
)

// PostgresCatalog implements model.Catalog over the products and
// product_reviews tables.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

const productColumns = `
	p.id, p.title, coalesce(p.description, ''), coalesce(p.category, ''),
	coalesce(p.price, 0), coalesce(p.rating, 0), coalesce(p.stock, 0),
	coalesce(p.brand, ''), coalesce(p.sku, ''),
	coalesce(p.availability_status, ''), coalesce(p.shipping_information, ''),
	coalesce(p.return_policy, ''), coalesce(p.warranty_information, ''),
	p.dimensions, coalesce(p.weight, 0), coalesce(p.minimum_order_quantity, 0)`

func scanProduct(row pgx.Row, p *model.ProductRow, extra ...any) error {
	dest := []any{
		&p.ID, &p.Title, &p.Description, &p.Category,
		&p.Price, &p.Rating, &p.Stock,
		&p.Brand, &p.SKU,
		&p.AvailabilityStatus, &p.ShippingInformation,
		&p.ReturnPolicy, &p.WarrantyInformation,
		&p.Dimensions, &p.Weight, &p.MinimumOrderQuantity,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

func (c *PostgresCatalog) SearchHybrid(ctx context.Context, query string, limit int) ([]model.ProductRow, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	like := "%" + query + "%"

	sql := `
	with review_agg as (
	  select product_id, avg(rating)::float as avg_rating, count(*) as review_count
	  from product_reviews
	  group by product_id
	)
	select ` + productColumns + `,
	  coalesce(r.avg_rating, p.rating, 0),
	  coalesce(r.review_count, 0),
	  (p.title ilike $1) as exact_title_match,
	  ts_rank_cd(
	    to_tsvector('english',
	      coalesce(p.title, '') || ' ' || coalesce(p.description, '') || ' ' ||
	      coalesce(p.category, '') || ' ' || coalesce(p.brand, '') || ' ' ||
	      coalesce(p.sku, '')),
	    websearch_to_tsquery('english', $1)
	  ) as keyword_rank,
	  (p.title ilike $2 or p.description ilike $2 or p.category ilike $2
	   or p.brand ilike $2 or p.sku ilike $2) as keyword_match
	from products p
	left join review_agg r on r.product_id = p.id
	order by exact_title_match desc, keyword_rank desc, keyword_match desc
	limit $3`

	rows, err := c.pool.Query(ctx, sql, query, like, limit)
	if err != nil {
		logx.Error().Err(err).Str("query", query).Msg("hybrid product search failed")
		return nil, errx.WrapPostgres(err, "products", "product_reviews")
	}
	defer rows.Close()

	var out []model.ProductRow
	for rows.Next() {
		var p model.ProductRow
		var keywordRank float64
		var keywordMatch bool
		if err := scanProduct(rows, &p, &p.AvgRating, &p.ReviewCount, &p.ExactTitleMatch, &keywordRank, &keywordMatch); err != nil {
			return nil, errx.WrapPostgres(err, "products")
		}
		out = append(out, p)
	}
	return out, errx.WrapPostgres(rows.Err(), "products")
}

func (c *PostgresCatalog) GetByTitle(ctx context.Context, title string, limit int) ([]model.ProductRow, error) {
	sql := `select ` + productColumns + `
	from products p
	where lower(p.title) = lower($1)
	limit $2`

	rows, err := c.pool.Query(ctx, sql, title, limit)
	if err != nil {
		logx.Error().Err(err).Str("title", title).Msg("product title lookup failed")
		return nil, errx.WrapPostgres(err, "products")
	}
	defer rows.Close()

	var out []model.ProductRow
	for rows.Next() {
		var p model.ProductRow
		if err := scanProduct(rows, &p); err != nil {
			return nil, errx.WrapPostgres(err, "products")
		}
		out = append(out, p)
	}
	return out, errx.WrapPostgres(rows.Err(), "products")
}

func (c *PostgresCatalog) GetByCategory(ctx context.Context, category string, limit int) ([]model.CategoryProductRow, error) {
	rows, err := c.pool.Query(ctx,
		`select title, coalesce(price, 0), coalesce(stock, 0)
		 from products
		 where lower(category) = lower($1)
		 order by title
		 limit $2`,
		category, limit,
	)
	if err != nil {
		logx.Error().Err(err).Str("category", category).Msg("category listing failed")
		return nil, errx.WrapPostgres(err, "products")
	}
	defer rows.Close()

	var out []model.CategoryProductRow
	for rows.Next() {
		var p model.CategoryProductRow
		if err := rows.Scan(&p.Title, &p.Price, &p.Stock); err != nil {
			return nil, errx.WrapPostgres(err, "products")
		}
		out = append(out, p)
	}
	return out, errx.WrapPostgres(rows.Err(), "products")
}

func (c *PostgresCatalog) GetReviews(ctx context.Context, productID int, limit int) ([]model.ReviewRow, error) {
	rows, err := c.pool.Query(ctx,
		`select coalesce(rating, 0), coalesce(comment, ''), coalesce(date::text, ''), coalesce(reviewer_name, '')
		 from product_reviews
		 where product_id = $1
		 order by date desc nulls last
		 limit $2`,
		productID, limit,
	)
	if err != nil {
		logx.Error().Err(err).Int("product_id", productID).Msg("review lookup failed")
		return nil, errx.WrapPostgres(err, "product_reviews")
	}
	defer rows.Close()

	var out []model.ReviewRow
	for rows.Next() {
		var r model.ReviewRow
		if err := rows.Scan(&r.Rating, &r.Comment, &r.Date, &r.ReviewerName); err != nil {
			return nil, errx.WrapPostgres(err, "product_reviews")
		}
		out = append(out, r)
	}
	return out, errx.WrapPostgres(rows.Err(), "product_reviews")
}

func (c *PostgresCatalog) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx,
		`select distinct category from products where category is not null order by category`)
	if err != nil {
		logx.Error().Err(err).Msg("category names lookup failed")
		return nil, errx.WrapPostgres(err, "products")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cat string
		if err := rows.Scan(&cat); err != nil {
			return nil, errx.WrapPostgres(err, "products")
		}
		if cat != "" {
			out = append(out, cat)
		}
	}
	return out, errx.WrapPostgres(rows.Err(), "products")
}

var _ model.Catalog = (*PostgresCatalog)(nil)
