package catalog

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightglass/storefront/pkg/logging"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepositoryWithDB(mock, logging.Default()), mock
}

func TestLoadStorefront(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT b\.id, b\.slug`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "slug", "name", "description", "logo_url",
			"theme_color_background", "theme_color_text", "theme_color_button",
		}).AddRow("biz-1", "corner-cafe", "Corner Cafe", "Coffee and cake", "", "#111111", "#FFFFFF", ""))

	mock.ExpectQuery(`FROM business_links`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{"label", "url"}).
			AddRow("Instagram", "https://instagram.com/cornercafe"))

	mock.ExpectQuery(`FROM business_payment_methods`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{"method"}).AddRow("card").AddRow("cash"))

	catID := 3
	catName := "Cakes"
	catOrder := 1.0
	mock.ExpectQuery(`FROM menu_items`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"c_id", "c_name", "c_order",
			"i_id", "i_name", "i_desc", "i_price", "i_image", "i_available",
		}).
			AddRow(&catID, &catName, &catOrder, int64(10), "Carrot cake", "", 450, "", true).
			AddRow(nil, nil, nil, int64(11), "Daily special", "", 900, "", true))

	data, err := repo.LoadStorefront(context.Background(), "biz-1")
	require.NoError(t, err)

	assert.Equal(t, "Corner Cafe", data.Business.Name)
	assert.Equal(t, "#111111", data.ThemeBackground)
	assert.Equal(t, []string{"card", "cash"}, data.PaymentMethods)
	require.Len(t, data.Links, 1)

	require.Len(t, data.Categories, 2)
	assert.Equal(t, 3, data.Categories[0].ID)
	assert.Equal(t, UncategorizedID, data.Categories[1].ID)
	require.Len(t, data.Categories[1].Items, 1)
	assert.Equal(t, "Daily special", data.Categories[1].Items[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadStorefrontNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT b\.id, b\.slug`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "slug", "name", "description", "logo_url",
			"theme_color_background", "theme_color_text", "theme_color_button",
		}))

	_, err := repo.LoadStorefront(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestListServices(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM services`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "duration_minutes", "buffer_minutes", "price_cents", "active_booking",
		}).AddRow(int64(1), "Haircut", 45, 15, 3500, true))

	services, err := repo.ListServices(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 60, services[0].OccupancyDuration())
	assert.NoError(t, mock.ExpectationsWereMet())
}
