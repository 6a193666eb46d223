package reservation

import (
	"net/url"
	"strings"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/pkg/errs"
)

const maxDetailLength = 2000

// ServiceDetails is closed over the three job kinds below.
type ServiceDetails interface {
	ServiceType() pricing.ServiceType
	Validate() []errs.FieldError
	sealed()
}

type DiagnosticDetails struct {
	Symptoms        string
	WarningLightsOn bool
	VehicleStarts   bool
}

type InspectionDetails struct {
	ListingURL  string
	SellerName  string
	SellerPhone string
}

type RepairDetails struct {
	Description   string
	PartsSupplied bool
}

func (DiagnosticDetails) ServiceType() pricing.ServiceType {
	return pricing.ServiceMobileDiagnostic
}

func (InspectionDetails) ServiceType() pricing.ServiceType {
	return pricing.ServicePrePurchaseInspection
}

func (RepairDetails) ServiceType() pricing.ServiceType {
	return pricing.ServiceGeneralRepair
}

func (DiagnosticDetails) sealed() {}
func (InspectionDetails) sealed() {}
func (RepairDetails) sealed()     {}

func (d DiagnosticDetails) Validate() []errs.FieldError {
	return requireText("details.symptoms", d.Symptoms)
}

func (d InspectionDetails) Validate() []errs.FieldError {
	out := requireText("details.sellerName", d.SellerName)
	if d.ListingURL != "" {
		u, err := url.ParseRequestURI(d.ListingURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			out = append(out, errs.FieldError{Field: "details.listingUrl", Message: "must be an http(s) URL"})
		}
	}
	return out
}

func (d RepairDetails) Validate() []errs.FieldError {
	return requireText("details.description", d.Description)
}

func requireText(field, value string) []errs.FieldError {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return []errs.FieldError{{Field: field, Message: "is required"}}
	case len(value) > maxDetailLength:
		return []errs.FieldError{{Field: field, Message: "is too long"}}
	}
	return nil
}
