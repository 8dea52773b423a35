package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightglass/storefront/internal/business"
	"github.com/nightglass/storefront/internal/catalog"
	"github.com/nightglass/storefront/internal/theme"
	"github.com/nightglass/storefront/pkg/logging"
)

func newStorefrontFixture(t *testing.T) (*StorefrontHandler, pgxmock.PgxPoolIface, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	h := NewStorefrontHandler(
		catalog.NewRepositoryWithDB(mock, logging.Default()),
		business.NewStore(rdb),
		theme.NewDeriver(logging.Default()),
		logging.Default(),
	)
	return h, mock, mr
}

func expectStorefrontQueries(mock pgxmock.PgxPoolIface, bg, text, button string) {
	mock.ExpectQuery("FROM businesses b").WithArgs("biz-1").WillReturnRows(
		pgxmock.NewRows([]string{"id", "slug", "name", "description", "logo_url", "theme_color_background", "theme_color_text", "theme_color_button"}).
			AddRow("biz-1", "glow-studio", "Glow Studio", "Skin and laser care", "", bg, text, button))
	mock.ExpectQuery("FROM business_links").WithArgs("biz-1").WillReturnRows(
		pgxmock.NewRows([]string{"label", "url"}).
			AddRow("Instagram", "https://instagram.com/glow"))
	mock.ExpectQuery("FROM business_payment_methods").WithArgs("biz-1").WillReturnRows(
		pgxmock.NewRows([]string{"method"}).
			AddRow("card").AddRow("cash"))

	facialsID, lasersID := 2, 1
	facialsOrder, lasersOrder := 2.0, 1.0
	facials, lasers := "Facials", "Lasers"
	mock.ExpectQuery("FROM menu_items i").WithArgs("biz-1").WillReturnRows(
		pgxmock.NewRows([]string{"c_id", "c_name", "c_order", "i_id", "i_name", "i_desc", "i_price", "i_image", "i_available"}).
			AddRow(&facialsID, &facials, &facialsOrder, int64(10), "HydraFacial", "", 15000, "", true).
			AddRow(&lasersID, &lasers, &lasersOrder, int64(11), "IPL", "", 25000, "", true).
			AddRow(nil, nil, nil, int64(12), "Gift Card", "", 5000, "", true))
}

func getPage(t *testing.T, h *StorefrontHandler) (*httptest.ResponseRecorder, StorefrontPage) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/biz-1", nil)
	h.Routes().ServeHTTP(rec, req)
	var page StorefrontPage
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	}
	return rec, page
}

func TestGetPageComposesEverything(t *testing.T) {
	h, mock, _ := newStorefrontFixture(t)
	expectStorefrontQueries(mock, "#FFFFFF", "#000000", "#000000")

	rec, page := getPage(t, h)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Glow Studio", page.Business.Name)
	assert.True(t, page.BookingEnabled)
	assert.Len(t, page.Links, 1)
	assert.Equal(t, []string{"card", "cash"}, page.PaymentMethods)

	// Categories sorted by display order, sentinel bucket last.
	require.Len(t, page.Categories, 3)
	assert.Equal(t, "Lasers", page.Categories[0].Name)
	assert.Equal(t, "Facials", page.Categories[1].Name)
	assert.Equal(t, catalog.UncategorizedName, page.Categories[2].Name)
	assert.Equal(t, "category-other", page.Categories[2].AnchorID())

	assert.False(t, page.DarkBackground)
	assert.Equal(t, "#FFFFFF", page.ThemeVariables["--background"])
	assert.Equal(t, "black", page.ThemeVariables["--button-content"])
}

func TestGetPageDarkTheme(t *testing.T) {
	h, mock, _ := newStorefrontFixture(t)
	expectStorefrontQueries(mock, "#000000", "#FFFFFF", "#FFFFFF")

	rec, page := getPage(t, h)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, page.DarkBackground)
	assert.Equal(t, "#141414", page.ThemeVariables["--background-secondary"])
	assert.Equal(t, "white", page.ThemeVariables["--button-content"])
}

func TestGetPageSettingsSeedWins(t *testing.T) {
	h, mock, mr := newStorefrontFixture(t)
	expectStorefrontQueries(mock, "#FFFFFF", "#000000", "#000000")

	settings := business.DefaultSettings("biz-1")
	settings.ThemeColorBackground = "#000000"
	raw, err := json.Marshal(settings)
	require.NoError(t, err)
	require.NoError(t, mr.Set("business:settings:biz-1", string(raw)))

	rec, page := getPage(t, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, page.DarkBackground, "dashboard seed overrides the catalog column")
}

func TestGetPageBusinessNotFound(t *testing.T) {
	h, mock, _ := newStorefrontFixture(t)
	mock.ExpectQuery("FROM businesses b").WithArgs("biz-1").WillReturnError(pgx.ErrNoRows)

	rec, _ := getPage(t, h)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
