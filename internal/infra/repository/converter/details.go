package converter

import (
	"encoding/json"
	"fmt"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
)

type diagnosticJSON struct {
	Symptoms        string `json:"symptoms"`
	WarningLightsOn bool   `json:"warningLightsOn"`
	VehicleStarts   bool   `json:"vehicleStarts"`
}

type inspectionJSON struct {
	ListingURL  string `json:"listingUrl,omitempty"`
	SellerName  string `json:"sellerName"`
	SellerPhone string `json:"sellerPhone,omitempty"`
}

type repairJSON struct {
	Description   string `json:"description"`
	PartsSupplied bool   `json:"partsSupplied"`
}

type lineItemJSON struct {
	Kind        string `json:"kind"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
}

func MarshalDetails(d reservation.ServiceDetails) ([]byte, error) {
	switch v := d.(type) {
	case reservation.DiagnosticDetails:
		return json.Marshal(diagnosticJSON{Symptoms: v.Symptoms, WarningLightsOn: v.WarningLightsOn, VehicleStarts: v.VehicleStarts})
	case reservation.InspectionDetails:
		return json.Marshal(inspectionJSON{ListingURL: v.ListingURL, SellerName: v.SellerName, SellerPhone: v.SellerPhone})
	case reservation.RepairDetails:
		return json.Marshal(repairJSON{Description: v.Description, PartsSupplied: v.PartsSupplied})
	default:
		return nil, fmt.Errorf("unsupported service details %T", d)
	}
}

func UnmarshalDetails(service pricing.ServiceType, raw []byte) (reservation.ServiceDetails, error) {
	switch service {
	case pricing.ServiceMobileDiagnostic:
		var v diagnosticJSON
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return reservation.DiagnosticDetails{Symptoms: v.Symptoms, WarningLightsOn: v.WarningLightsOn, VehicleStarts: v.VehicleStarts}, nil
	case pricing.ServicePrePurchaseInspection:
		var v inspectionJSON
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return reservation.InspectionDetails{ListingURL: v.ListingURL, SellerName: v.SellerName, SellerPhone: v.SellerPhone}, nil
	case pricing.ServiceGeneralRepair:
		var v repairJSON
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return reservation.RepairDetails{Description: v.Description, PartsSupplied: v.PartsSupplied}, nil
	default:
		return nil, fmt.Errorf("%w: %q", pricing.ErrUnknownService, service)
	}
}

func MarshalBreakdown(items []pricing.LineItem) ([]byte, error) {
	out := make([]lineItemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemJSON{Kind: string(it.Kind), Code: it.Code, Label: it.Label, AmountCents: it.Amount.Cents()})
	}
	return json.Marshal(out)
}

func UnmarshalBreakdown(raw []byte) ([]pricing.LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []lineItemJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		amount, err := pricing.NewMoney(it.AmountCents)
		if err != nil {
			return nil, err
		}
		out = append(out, pricing.LineItem{Kind: pricing.LineItemKind(it.Kind), Code: it.Code, Label: it.Label, Amount: amount})
	}
	return out, nil
}
