//go:build unit

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/pkg/catalog"
	"mechanic-booking/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	c := catalog.Default()

	diag, ok := c.Service(pricing.ServiceMobileDiagnostic)
	require.True(t, ok)
	assert.Equal(t, int64(14000), diag.Price.Cents())
	assert.Equal(t, 90*time.Minute, diag.Duration)

	repair, ok := c.Service(pricing.ServiceGeneralRepair)
	require.True(t, ok)
	assert.True(t, repair.DepositOnly)

	callout, ok := c.AddOn("after_hours_callout")
	require.True(t, ok)
	assert.True(t, callout.RequiresApproval)

	assert.Len(t, c.AddOns(), 4)
	assert.Equal(t, int64(5000), c.WeekendSurcharge().Cents())
}

func TestLoad_Overrides(t *testing.T) {
	t.Run("success: env price overrides apply", func(t *testing.T) {
		c, err := catalog.Load(config.PricingConfig{
			WeekendSurcharge: 7000,
			ServicePrices:    map[string]int64{"pre_purchase_inspection": 20000},
			AddOnPrices:      map[string]int64{"fluid_top_up": 3500},
		})
		require.NoError(t, err)

		inspection, _ := c.Service(pricing.ServicePrePurchaseInspection)
		topUp, _ := c.AddOn("fluid_top_up")
		assert.Equal(t, int64(20000), inspection.Price.Cents())
		assert.Equal(t, int64(3500), topUp.Price.Cents())
		assert.Equal(t, int64(7000), c.WeekendSurcharge().Cents())
	})

	t.Run("error: override for unknown add-on", func(t *testing.T) {
		_, err := catalog.Load(config.PricingConfig{AddOnPrices: map[string]int64{"wheel_alignment": 100}})
		assert.ErrorIs(t, err, pricing.ErrUnknownAddOn)
	})

	t.Run("error: negative price", func(t *testing.T) {
		_, err := catalog.Load(config.PricingConfig{ServicePrices: map[string]int64{"general_repair": -1}})
		assert.ErrorIs(t, err, pricing.ErrNegativeMoney)
	})
}

func TestLoad_CatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	content := `
[[services]]
type = "mobile_diagnostic"
name = "Diagnostic"
price = 15000
duration = "60m"

[[services]]
type = "pre_purchase_inspection"
name = "Inspection"
price = 19000
duration = "2h"

[[services]]
type = "general_repair"
name = "Repair"
price = 6000
deposit_only = true
duration = "2h"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := catalog.Load(config.PricingConfig{CatalogFile: path})
	require.NoError(t, err)

	diag, _ := c.Service(pricing.ServiceMobileDiagnostic)
	assert.Equal(t, time.Hour, diag.Duration)
	assert.Empty(t, c.AddOns())
}
