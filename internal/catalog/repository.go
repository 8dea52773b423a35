package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nightglass/storefront/pkg/logging"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Business is the public profile record for one tenant.
type Business struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

// Link is one external link shown on the storefront (socials, website).
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// StorefrontData is everything a single storefront page render needs,
// resolved once per page load and treated as immutable afterward.
type StorefrontData struct {
	Business        Business   `json:"business"`
	ThemeBackground string     `json:"-"`
	ThemeText       string     `json:"-"`
	ThemeButton     string     `json:"-"`
	Links           []Link     `json:"links"`
	PaymentMethods  []string   `json:"payment_methods"`
	Categories      []Category `json:"categories"`
}

// Repository loads storefront catalogs from Postgres.
type Repository struct {
	db     DB
	logger *logging.Logger
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool, logger *logging.Logger) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return newRepository(pool, logger)
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB, logger *logging.Logger) *Repository {
	return newRepository(db, logger)
}

func newRepository(db DB, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger.Component("catalog")}
}

// ErrBusinessNotFound is returned when the business id resolves to nothing.
var ErrBusinessNotFound = errors.New("catalog: business not found")

// LoadStorefront resolves a business id into the full page data object.
func (r *Repository) LoadStorefront(ctx context.Context, businessID string) (*StorefrontData, error) {
	data := &StorefrontData{}

	row := r.db.QueryRow(ctx, `
		SELECT b.id, b.slug, b.name, COALESCE(b.description, ''), COALESCE(b.logo_url, ''),
		       COALESCE(s.theme_color_background, ''), COALESCE(s.theme_color_text, ''), COALESCE(s.theme_color_button, '')
		FROM businesses b
		LEFT JOIN business_settings s ON s.business_id = b.id
		WHERE b.id = $1`, businessID)
	err := row.Scan(
		&data.Business.ID, &data.Business.Slug, &data.Business.Name,
		&data.Business.Description, &data.Business.LogoURL,
		&data.ThemeBackground, &data.ThemeText, &data.ThemeButton,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load business: %w", err)
	}

	if data.Links, err = r.loadLinks(ctx, businessID); err != nil {
		return nil, err
	}
	if data.PaymentMethods, err = r.loadPaymentMethods(ctx, businessID); err != nil {
		return nil, err
	}
	if data.Categories, err = r.loadCategories(ctx, businessID); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Repository) loadLinks(ctx context.Context, businessID string) ([]Link, error) {
	rows, err := r.db.Query(ctx, `
		SELECT label, url FROM business_links
		WHERE business_id = $1 ORDER BY position`, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: load links: %w", err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.Label, &l.URL); err != nil {
			return nil, fmt.Errorf("catalog: scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *Repository) loadPaymentMethods(ctx context.Context, businessID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT method FROM business_payment_methods
		WHERE business_id = $1 ORDER BY method`, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: load payment methods: %w", err)
	}
	defer rows.Close()

	methods := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("catalog: scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// loadCategories joins menu items to their categories. Items with a NULL
// category land in the uncategorized sentinel bucket.
func (r *Repository) loadCategories(ctx context.Context, businessID string) ([]Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.display_order,
		       i.id, i.name, COALESCE(i.description, ''), i.price_cents, COALESCE(i.image_url, ''), i.available
		FROM menu_items i
		LEFT JOIN menu_categories c ON c.id = i.category_id
		WHERE i.business_id = $1
		ORDER BY i.id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: load menu: %w", err)
	}
	defer rows.Close()

	var records []CategoryRecord
	index := map[int]int{}
	for rows.Next() {
		var (
			catID    *int
			catName  *string
			catOrder *float64
			item     Item
		)
		if err := rows.Scan(&catID, &catName, &catOrder,
			&item.ID, &item.Name, &item.Description, &item.PriceCents, &item.ImageURL, &item.Available); err != nil {
			return nil, fmt.Errorf("catalog: scan menu row: %w", err)
		}
		key := UncategorizedID
		if catID != nil {
			key = *catID
		}
		pos, ok := index[key]
		if !ok {
			pos = len(records)
			index[key] = pos
			records = append(records, CategoryRecord{
				CategoryID:   catID,
				CategoryName: catName,
				DisplayOrder: catOrder,
			})
		}
		records[pos].Items = append(records[pos].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate menu rows: %w", err)
	}
	return ResolveCategories(records), nil
}

// ListServices returns the bookable service catalog for the wizard.
func (r *Repository) ListServices(ctx context.Context, businessID string) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, duration_minutes, COALESCE(buffer_minutes, 0), price_cents, active_booking
		FROM services
		WHERE business_id = $1 AND active_booking = TRUE
		ORDER BY name`, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.BufferMinutes, &s.PriceCents, &s.ActiveBooking); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
