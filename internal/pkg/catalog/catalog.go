package catalog

import (
	_ "embed"
	"fmt"
	"time"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/pkg/config"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var defaultCatalog string

type fileFormat struct {
	Services []serviceEntry `toml:"services"`
	AddOns   []addOnEntry   `toml:"add_ons"`
}

type serviceEntry struct {
	Type        string `toml:"type"`
	Name        string `toml:"name"`
	Price       int64  `toml:"price"`
	DepositOnly bool   `toml:"deposit_only"`
	Duration    string `toml:"duration"`
}

type addOnEntry struct {
	ID               string `toml:"id"`
	Name             string `toml:"name"`
	Price            int64  `toml:"price"`
	RequiresApproval bool   `toml:"requires_approval"`
}

// Load builds the catalog from the embedded defaults, or from CatalogFile when set,
// then applies per-entry price overrides.
func Load(cfg config.PricingConfig) (*pricing.Catalog, error) {
	var f fileFormat
	if cfg.CatalogFile != "" {
		if _, err := toml.DecodeFile(cfg.CatalogFile, &f); err != nil {
			return nil, fmt.Errorf("decode catalog file %s: %w", cfg.CatalogFile, err)
		}
	} else if _, err := toml.Decode(defaultCatalog, &f); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}

	for k := range cfg.ServicePrices {
		if !f.hasService(k) {
			return nil, fmt.Errorf("PRICING_SERVICE_PRICES: %w %q", pricing.ErrUnknownService, k)
		}
	}
	for k := range cfg.AddOnPrices {
		if !f.hasAddOn(k) {
			return nil, fmt.Errorf("PRICING_ADDON_PRICES: %w %q", pricing.ErrUnknownAddOn, k)
		}
	}

	services := make([]pricing.Service, 0, len(f.Services))
	for _, s := range f.Services {
		price := s.Price
		if override, ok := cfg.ServicePrices[s.Type]; ok {
			price = override
		}
		money, err := pricing.NewMoney(price)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", s.Type, err)
		}
		duration, err := time.ParseDuration(s.Duration)
		if err != nil {
			return nil, fmt.Errorf("service %q duration: %w", s.Type, err)
		}
		services = append(services, pricing.Service{
			Type:        pricing.ServiceType(s.Type),
			Name:        s.Name,
			Price:       money,
			DepositOnly: s.DepositOnly,
			Duration:    duration,
		})
	}

	addOns := make([]pricing.AddOn, 0, len(f.AddOns))
	for _, a := range f.AddOns {
		price := a.Price
		if override, ok := cfg.AddOnPrices[a.ID]; ok {
			price = override
		}
		money, err := pricing.NewMoney(price)
		if err != nil {
			return nil, fmt.Errorf("add-on %q: %w", a.ID, err)
		}
		addOns = append(addOns, pricing.AddOn{
			ID:               pricing.AddOnID(a.ID),
			Name:             a.Name,
			Price:            money,
			RequiresApproval: a.RequiresApproval,
		})
	}

	surcharge, err := pricing.NewMoney(cfg.WeekendSurcharge)
	if err != nil {
		return nil, fmt.Errorf("weekend surcharge: %w", err)
	}
	return pricing.NewCatalog(services, addOns, surcharge)
}

// Default is the embedded catalog with the standard weekend surcharge.
func Default() *pricing.Catalog {
	c, err := Load(config.PricingConfig{WeekendSurcharge: 5000})
	if err != nil {
		panic(err)
	}
	return c
}

func (f fileFormat) hasService(t string) bool {
	for _, s := range f.Services {
		if s.Type == t {
			return true
		}
	}
	return false
}

func (f fileFormat) hasAddOn(id string) bool {
	for _, a := range f.AddOns {
		if a.ID == id {
			return true
		}
	}
	return false
}
