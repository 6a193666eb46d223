package pricing

import (
	"errors"
	"fmt"
	"time"
)

type ServiceType string

const (
	ServiceMobileDiagnostic      ServiceType = "mobile_diagnostic"
	ServicePrePurchaseInspection ServiceType = "pre_purchase_inspection"
	ServiceGeneralRepair         ServiceType = "general_repair"
)

func (s ServiceType) String() string {
	return string(s)
}

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceMobileDiagnostic, ServicePrePurchaseInspection, ServiceGeneralRepair:
		return true
	default:
		return false
	}
}

type AddOnID string

func (a AddOnID) String() string {
	return string(a)
}

type Service struct {
	Type        ServiceType
	Name        string
	Price       Money
	DepositOnly bool
	Duration    time.Duration
}

type AddOn struct {
	ID               AddOnID
	Name             string
	Price            Money
	RequiresApproval bool
}

var (
	ErrEmptyCatalog       = errors.New("catalog must contain every service type")
	ErrDuplicateCatalogID = errors.New("catalog entries must be unique")
)

// Catalog is static after construction.
type Catalog struct {
	services         map[ServiceType]Service
	serviceOrder     []ServiceType
	addOns           map[AddOnID]AddOn
	addOnOrder       []AddOnID
	weekendSurcharge Money
}

func NewCatalog(services []Service, addOns []AddOn, weekendSurcharge Money) (*Catalog, error) {
	c := &Catalog{
		services:         make(map[ServiceType]Service, len(services)),
		addOns:           make(map[AddOnID]AddOn, len(addOns)),
		weekendSurcharge: weekendSurcharge,
	}
	for _, s := range services {
		if !s.Type.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownService, s.Type)
		}
		if _, dup := c.services[s.Type]; dup {
			return nil, fmt.Errorf("%w: service %q", ErrDuplicateCatalogID, s.Type)
		}
		if s.Duration <= 0 {
			return nil, fmt.Errorf("service %q needs a positive duration", s.Type)
		}
		c.services[s.Type] = s
		c.serviceOrder = append(c.serviceOrder, s.Type)
	}
	for _, st := range []ServiceType{ServiceMobileDiagnostic, ServicePrePurchaseInspection, ServiceGeneralRepair} {
		if _, ok := c.services[st]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrEmptyCatalog, st)
		}
	}
	for _, a := range addOns {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: empty add-on id", ErrUnknownAddOn)
		}
		if _, dup := c.addOns[a.ID]; dup {
			return nil, fmt.Errorf("%w: add-on %q", ErrDuplicateCatalogID, a.ID)
		}
		c.addOns[a.ID] = a
		c.addOnOrder = append(c.addOnOrder, a.ID)
	}
	return c, nil
}

func (c *Catalog) Service(t ServiceType) (Service, bool) {
	s, ok := c.services[t]
	return s, ok
}

func (c *Catalog) AddOn(id AddOnID) (AddOn, bool) {
	a, ok := c.addOns[id]
	return a, ok
}

func (c *Catalog) Services() []Service {
	out := make([]Service, 0, len(c.serviceOrder))
	for _, t := range c.serviceOrder {
		out = append(out, c.services[t])
	}
	return out
}

func (c *Catalog) AddOns() []AddOn {
	out := make([]AddOn, 0, len(c.addOnOrder))
	for _, id := range c.addOnOrder {
		out = append(out, c.addOns[id])
	}
	return out
}

func (c *Catalog) WeekendSurcharge() Money {
	return c.weekendSurcharge
}
