package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// PostgresSink appends extraction records to the products and variants
// tables. Each append is a single autocommit INSERT so a record is durable
// before the call returns, mirroring the CSV sink's guarantee. Rows are
// grouped by a stable per-target key, so rerunning the same target sees its
// prior rows through ExistingProductURLs and the ON CONFLICT guard instead
// of duplicating them.
type PostgresSink struct {
	pool      *pgxpool.Pool
	targetKey string
	logger    *slog.Logger
}

// TargetKey derives the session key rows are grouped by. It must be
// deterministic for a target URL across process restarts.
func TargetKey(rawURL string) string {
	return strings.TrimSpace(rawURL)
}

type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
}

func NewPostgresSink(ctx context.Context, cfg PostgresConfig, targetKey string) (*PostgresSink, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLife
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSink{
		pool:      pool,
		targetKey: targetKey,
		logger:    slog.Default().With("component", "postgres_sink"),
	}, nil
}

func (s *PostgresSink) AppendProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (session_id, product_url, title, price, seller_name, manufacturer_name, image_url, is_whitelisted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, product_url) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		s.targetKey, p.URL, p.Title, p.Price, p.Seller, p.Manufacturer, p.ImageURL, p.Whitelisted,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting product: %v", ErrWriteFailed, err)
	}

	return nil
}

func (s *PostgresSink) AppendVariant(ctx context.Context, v *models.Variant) error {
	query := `
		INSERT INTO variants (session_id, variant_product_url, main_product_url, title, variant_price, seller_name, manufacturer_name, image_url, is_whitelisted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, variant_product_url) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		s.targetKey, v.URL, v.ParentURL, v.Title, v.Price, v.Seller, v.Manufacturer, v.ImageURL, v.Whitelisted,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting variant: %v", ErrWriteFailed, err)
	}

	return nil
}

func (s *PostgresSink) ExistingProductURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT product_url FROM products WHERE session_id = $1`, s.targetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing products: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan product url: %w", err)
		}
		urls[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read existing products: %w", err)
	}

	return urls, nil
}

func (s *PostgresSink) Location() string {
	return fmt.Sprintf("postgres://%s", s.targetKey)
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
