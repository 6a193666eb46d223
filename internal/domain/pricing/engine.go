package pricing

import (
	"fmt"
	"slices"
	"time"

	"mechanic-booking/internal/pkg/errs"
)

var (
	ErrUnknownService = errs.New("unknown service type")
	ErrUnknownAddOn   = errs.New("unknown add-on")
)

type LineItemKind string

const (
	LineItemService   LineItemKind = "service"
	LineItemAddOn     LineItemKind = "add_on"
	LineItemSurcharge LineItemKind = "surcharge"
)

const weekendSurchargeCode = "weekend_surcharge"

type LineItem struct {
	Kind   LineItemKind
	Code   string
	Label  string
	Amount Money
}

type Quote struct {
	Service          ServiceType
	AddOns           []AddOnID
	ServicePrice     Money
	AddOnsTotal      Money
	Surcharge        Money
	Total            Money
	DepositOnly      bool
	RequiresApproval bool
	Duration         time.Duration
	Breakdown        []LineItem
}

// Engine prices bookings from a static catalog. It holds no mutable state.
type Engine struct {
	catalog *Catalog
}

func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// CalculateTotal is independent of add-on order and ignores repeats.
func (e *Engine) CalculateTotal(service ServiceType, addOns []AddOnID) (Quote, error) {
	svc, ok := e.catalog.Service(service)
	if !ok {
		v := errs.NewValidationError(errs.FieldError{Field: "service", Message: fmt.Sprintf("unknown service %q", service)})
		return Quote{}, errs.Mark(v, ErrUnknownService)
	}

	selected, err := e.normalizeAddOns(addOns)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		Service:      svc.Type,
		AddOns:       make([]AddOnID, 0, len(selected)),
		ServicePrice: svc.Price,
		DepositOnly:  svc.DepositOnly,
		Duration:     svc.Duration,
		Breakdown: []LineItem{{
			Kind:   LineItemService,
			Code:   string(svc.Type),
			Label:  svc.Name,
			Amount: svc.Price,
		}},
	}
	for _, a := range selected {
		q.AddOns = append(q.AddOns, a.ID)
		q.AddOnsTotal = q.AddOnsTotal.Add(a.Price)
		q.RequiresApproval = q.RequiresApproval || a.RequiresApproval
		q.Breakdown = append(q.Breakdown, LineItem{
			Kind:   LineItemAddOn,
			Code:   string(a.ID),
			Label:  a.Name,
			Amount: a.Price,
		})
	}
	q.Total = q.ServicePrice.Add(q.AddOnsTotal)
	return q, nil
}

// CalculateBookingTotal adds the weekend surcharge as its own line item.
func (e *Engine) CalculateBookingTotal(service ServiceType, addOns []AddOnID, weekend bool) (Quote, error) {
	q, err := e.CalculateTotal(service, addOns)
	if err != nil {
		return Quote{}, err
	}
	surcharge := e.catalog.WeekendSurcharge()
	if weekend && !surcharge.IsZero() {
		q.Surcharge = surcharge
		q.Total = q.Total.Add(surcharge)
		q.Breakdown = append(q.Breakdown, LineItem{
			Kind:   LineItemSurcharge,
			Code:   weekendSurchargeCode,
			Label:  "Weekend surcharge",
			Amount: surcharge,
		})
	}
	return q, nil
}

func (e *Engine) HasAddOnsRequiringApproval(addOns []AddOnID) bool {
	for _, id := range addOns {
		if a, ok := e.catalog.AddOn(id); ok && a.RequiresApproval {
			return true
		}
	}
	return false
}

// normalizeAddOns resolves ids, drops repeats and orders by catalog position.
func (e *Engine) normalizeAddOns(ids []AddOnID) ([]AddOn, error) {
	v := errs.NewValidationError()
	seen := make(map[AddOnID]struct{}, len(ids))
	for i, id := range ids {
		if _, ok := e.catalog.AddOn(id); !ok {
			v.Add(fmt.Sprintf("addOns[%d]", i), fmt.Sprintf("unknown add-on %q", id))
			continue
		}
		seen[id] = struct{}{}
	}
	if v.HasErrors() {
		return nil, errs.Mark(v, ErrUnknownAddOn)
	}

	out := make([]AddOn, 0, len(seen))
	for _, a := range e.catalog.AddOns() {
		if _, ok := seen[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// SortedAddOnIDs returns a sorted, de-duplicated copy.
func SortedAddOnIDs(ids []AddOnID) []AddOnID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
