package engine

import (
	"fmt"
)

const (
	mysqlPasswordLength = 16
	adminPasswordLength = 12
)

// WooCommerce provisions WordPress + WooCommerce backed by MySQL behind an
// nginx ingress
type WooCommerce struct {
	chartPath  string
	baseDomain string
	adminUser  string
	adminEmail string
}

// WooCommerceConfig parameterizes the engine from process configuration
type WooCommerceConfig struct {
	ChartPath  string
	BaseDomain string
	AdminUser  string
	AdminEmail string
}

// NewWooCommerce creates the WooCommerce engine
func NewWooCommerce(cfg WooCommerceConfig) *WooCommerce {
	return &WooCommerce{
		chartPath:  cfg.ChartPath,
		baseDomain: cfg.BaseDomain,
		adminUser:  cfg.AdminUser,
		adminEmail: cfg.AdminEmail,
	}
}

func (w *WooCommerce) Name() string {
	return "woocommerce"
}

func (w *WooCommerce) ChartPath() string {
	return w.chartPath
}

// Values builds the chart values for one store. MySQL and admin passwords
// are generated fresh per call; the chart persists them in-cluster, so the
// control plane never stores them.
func (w *WooCommerce) Values(storeID string) (map[string]string, error) {
	domain := fmt.Sprintf("%s.%s", storeID, w.baseDomain)

	mysqlRootPassword, err := generatePassword(mysqlPasswordLength)
	if err != nil {
		return nil, err
	}
	mysqlPassword, err := generatePassword(mysqlPasswordLength)
	if err != nil {
		return nil, err
	}
	adminPassword, err := generatePassword(adminPasswordLength)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"storeId": storeID,
		"domain":  domain,

		"mysql.auth.rootPassword": mysqlRootPassword,
		"mysql.auth.database":     "wordpress",
		"mysql.auth.username":     "wordpress",
		"mysql.auth.password":     mysqlPassword,

		"wordpress.admin.user":     w.adminUser,
		"wordpress.admin.email":    w.adminEmail,
		"wordpress.admin.password": adminPassword,
		"wordpress.siteTitle":      storeID,

		"ingress.hostname":  domain,
		"ingress.className": "nginx",
	}, nil
}

func (w *WooCommerce) URLs(storeID string) (string, string) {
	storeURL := fmt.Sprintf("http://%s.%s", storeID, w.baseDomain)
	return storeURL, storeURL + "/wp-admin"
}

// Validate always succeeds: WooCommerce is the generally available engine
func (w *WooCommerce) Validate() error {
	return nil
}
