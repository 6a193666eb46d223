package request

import (
	"strings"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/commands"
)

type CustomerRequest struct {
	Name    string `json:"name" binding:"max=120"`
	Phone   string `json:"phone" binding:"max=40"`
	Email   string `json:"email" binding:"max=254"`
	Address string `json:"address" binding:"max=300"`
	Vehicle string `json:"vehicle" binding:"max=200"`
}

type DiagnosticRequest struct {
	Symptoms        string `json:"symptoms"`
	WarningLightsOn bool   `json:"warningLightsOn"`
	VehicleStarts   bool   `json:"vehicleStarts"`
}

type InspectionRequest struct {
	ListingURL  string `json:"listingUrl"`
	SellerName  string `json:"sellerName"`
	SellerPhone string `json:"sellerPhone"`
}

type RepairRequest struct {
	Description   string `json:"description"`
	PartsSupplied bool   `json:"partsSupplied"`
}

// CreateBookingRequest carries exactly one details block, matching Service.
type CreateBookingRequest struct {
	Service         string             `json:"service" binding:"required"`
	Diagnostic      *DiagnosticRequest `json:"diagnostic,omitempty"`
	Inspection      *InspectionRequest `json:"inspection,omitempty"`
	Repair          *RepairRequest     `json:"repair,omitempty"`
	AddOns          []string           `json:"addOns" binding:"max=10"`
	Customer        CustomerRequest    `json:"customer"`
	Date            string             `json:"date" binding:"required"`
	Time            string             `json:"time,omitempty"`
	Weekend         bool               `json:"weekend"`
	PreferredWindow string             `json:"preferredWindow,omitempty" binding:"max=200"`
}

// ToInput decodes wire formats. Business rules are left to the ledger so all
// field errors come back together.
func (r *CreateBookingRequest) ToInput(cal *calendar.Calendar) (commands.CreateHeldInput, error) {
	verr := errs.NewValidationError()

	date, err := cal.ParseDate(r.Date)
	if err != nil {
		verr.Add("date", "must be formatted as YYYY-MM-DD")
	}

	var at *calendar.ClockTime
	if strings.TrimSpace(r.Time) != "" {
		t, err := calendar.ParseClockTime(r.Time)
		if err != nil {
			verr.Add("time", "must be formatted as HH:MM")
		} else {
			at = &t
		}
	}

	service := pricing.ServiceType(strings.TrimSpace(r.Service))
	details, blocks := r.details(service)
	if blocks > 1 {
		verr.Add("details", "provide only the block for the selected service")
	}

	if verr.HasErrors() {
		return commands.CreateHeldInput{}, verr
	}

	return commands.CreateHeldInput{
		Service:         service,
		Details:         details,
		AddOns:          toAddOnIDs(r.AddOns),
		Customer:        reservation.NewCustomer(r.Customer.Name, r.Customer.Phone, r.Customer.Email, r.Customer.Address, r.Customer.Vehicle),
		Date:            date,
		StartTime:       at,
		Weekend:         r.Weekend,
		PreferredWindow: strings.TrimSpace(r.PreferredWindow),
	}, nil
}

func (r *CreateBookingRequest) details(service pricing.ServiceType) (reservation.ServiceDetails, int) {
	blocks := 0
	var out reservation.ServiceDetails
	if r.Diagnostic != nil {
		blocks++
		if service == pricing.ServiceMobileDiagnostic {
			out = reservation.DiagnosticDetails{
				Symptoms:        strings.TrimSpace(r.Diagnostic.Symptoms),
				WarningLightsOn: r.Diagnostic.WarningLightsOn,
				VehicleStarts:   r.Diagnostic.VehicleStarts,
			}
		}
	}
	if r.Inspection != nil {
		blocks++
		if service == pricing.ServicePrePurchaseInspection {
			out = reservation.InspectionDetails{
				ListingURL:  strings.TrimSpace(r.Inspection.ListingURL),
				SellerName:  strings.TrimSpace(r.Inspection.SellerName),
				SellerPhone: strings.TrimSpace(r.Inspection.SellerPhone),
			}
		}
	}
	if r.Repair != nil {
		blocks++
		if service == pricing.ServiceGeneralRepair {
			out = reservation.RepairDetails{
				Description:   strings.TrimSpace(r.Repair.Description),
				PartsSupplied: r.Repair.PartsSupplied,
			}
		}
	}
	return out, blocks
}

type QuoteRequest struct {
	Service string   `json:"service" binding:"required"`
	AddOns  []string `json:"addOns" binding:"max=10"`
	Date    string   `json:"date,omitempty"`
}

func (r *QuoteRequest) ToInput(cal *calendar.Calendar) (commands.QuoteInput, error) {
	in := commands.QuoteInput{
		Service: pricing.ServiceType(strings.TrimSpace(r.Service)),
		AddOns:  toAddOnIDs(r.AddOns),
	}
	if strings.TrimSpace(r.Date) != "" {
		date, err := cal.ParseDate(r.Date)
		if err != nil {
			return commands.QuoteInput{}, err
		}
		in.Date = &date
	}
	return in, nil
}

func toAddOnIDs(values []string) []pricing.AddOnID {
	out := make([]pricing.AddOnID, 0, len(values))
	for _, v := range values {
		out = append(out, pricing.AddOnID(strings.TrimSpace(v)))
	}
	return out
}
