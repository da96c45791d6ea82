package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWooCommerce() *WooCommerce {
	return NewWooCommerce(WooCommerceConfig{
		ChartPath:  "./charts/woocommerce",
		BaseDomain: "127.0.0.1.nip.io",
		AdminUser:  "admin",
		AdminEmail: "admin@example.com",
	})
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	r.Register(newTestWooCommerce())
	r.Register(NewMedusa())

	e, err := r.Resolve("woocommerce")
	require.NoError(t, err)
	assert.Equal(t, "woocommerce", e.Name())

	_, err = r.Resolve("shopify")
	assert.Error(t, err)

	assert.Equal(t, []string{"medusa", "woocommerce"}, r.Names())
}

func TestWooCommerceValues(t *testing.T) {
	w := newTestWooCommerce()

	values, err := w.Values("store-a1b2c3d4")
	require.NoError(t, err)

	assert.Equal(t, "store-a1b2c3d4", values["storeId"])
	assert.Equal(t, "store-a1b2c3d4.127.0.0.1.nip.io", values["domain"])
	assert.Equal(t, "store-a1b2c3d4.127.0.0.1.nip.io", values["ingress.hostname"])
	assert.Equal(t, "nginx", values["ingress.className"])
	assert.Equal(t, "wordpress", values["mysql.auth.database"])
	assert.Equal(t, "admin", values["wordpress.admin.user"])
	assert.Equal(t, "admin@example.com", values["wordpress.admin.email"])
	assert.Equal(t, "store-a1b2c3d4", values["wordpress.siteTitle"])

	assert.Len(t, values["mysql.auth.rootPassword"], 16)
	assert.Len(t, values["mysql.auth.password"], 16)
	assert.Len(t, values["wordpress.admin.password"], 12)
}

func TestWooCommercePasswordsAreFresh(t *testing.T) {
	w := newTestWooCommerce()

	first, err := w.Values("store-a1b2c3d4")
	require.NoError(t, err)
	second, err := w.Values("store-a1b2c3d4")
	require.NoError(t, err)

	assert.NotEqual(t, first["mysql.auth.rootPassword"], second["mysql.auth.rootPassword"])
	assert.NotEqual(t, first["wordpress.admin.password"], second["wordpress.admin.password"])
}

func TestWooCommerceURLs(t *testing.T) {
	w := newTestWooCommerce()

	storeURL, adminURL := w.URLs("store-a1b2c3d4")
	assert.Equal(t, "http://store-a1b2c3d4.127.0.0.1.nip.io", storeURL)
	assert.Equal(t, "http://store-a1b2c3d4.127.0.0.1.nip.io/wp-admin", adminURL)
}

func TestWooCommerceValidate(t *testing.T) {
	assert.NoError(t, newTestWooCommerce().Validate())
}

func TestMedusaUnavailable(t *testing.T) {
	m := NewMedusa()

	assert.Error(t, m.Validate())
	_, err := m.Values("store-a1b2c3d4")
	assert.Error(t, err)
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, err := generatePassword(16)
		require.NoError(t, err)
		assert.Len(t, p, 16)
		assert.False(t, seen[p], "passwords must not repeat")
		seen[p] = true
	}
}
