//go:build unit || e2e

package builder

import (
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	reqdto "mechanic-booking/internal/handler/dto/request"
	"mechanic-booking/internal/usecase/commands"
)

type BookingBuilder struct {
	Service         string
	Symptoms        string
	AddOns          []string
	Name            string
	Phone           string
	Email           string
	Address         string
	Vehicle         string
	Date            time.Time
	Time            string
	Weekend         bool
	PreferredWindow string
}

// NewBookingBuilder describes a weekday diagnostic visit on Monday at 10:00.
func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		Service:  string(pricing.ServiceMobileDiagnostic),
		Symptoms: "Rough idle when cold",
		AddOns:   []string{},
		Name:     "Sam Lee",
		Phone:    "0400 000 000",
		Email:    "sam@example.com",
		Address:  "1 George St, Sydney",
		Vehicle:  "2015 Mazda 3",
		Date:     Monday,
		Time:     "10:00",
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) OnDate(date time.Time) *BookingBuilder {
	b.Date = date
	return b
}

func (b *BookingBuilder) AtTime(hhmm string) *BookingBuilder {
	b.Time = hhmm
	return b
}

func (b *BookingBuilder) AsWeekendRequest(date time.Time, window string) *BookingBuilder {
	b.Date = date
	b.Time = ""
	b.Weekend = true
	b.PreferredWindow = window
	return b
}

func (b *BookingBuilder) BuildDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		Service: b.Service,
		Diagnostic: &reqdto.DiagnosticRequest{
			Symptoms:        b.Symptoms,
			WarningLightsOn: true,
			VehicleStarts:   true,
		},
		AddOns: b.AddOns,
		Customer: reqdto.CustomerRequest{
			Name:    b.Name,
			Phone:   b.Phone,
			Email:   b.Email,
			Address: b.Address,
			Vehicle: b.Vehicle,
		},
		Date:            b.Date.Format(calendar.DateLayout),
		Time:            b.Time,
		Weekend:         b.Weekend,
		PreferredWindow: b.PreferredWindow,
	}
}

// BuildInput is the decoded form the handler hands to the booking commands.
func (b *BookingBuilder) BuildInput() commands.CreateHeldInput {
	in := commands.CreateHeldInput{
		Service: pricing.ServiceType(b.Service),
		Details: reservation.DiagnosticDetails{
			Symptoms:        b.Symptoms,
			WarningLightsOn: true,
			VehicleStarts:   true,
		},
		Customer:        reservation.NewCustomer(b.Name, b.Phone, b.Email, b.Address, b.Vehicle),
		Date:            time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, sydney),
		Weekend:         b.Weekend,
		PreferredWindow: b.PreferredWindow,
	}
	in.AddOns = make([]pricing.AddOnID, 0, len(b.AddOns))
	for _, a := range b.AddOns {
		in.AddOns = append(in.AddOns, pricing.AddOnID(a))
	}
	if b.Time != "" {
		at, err := calendar.ParseClockTime(b.Time)
		if err != nil {
			panic(err)
		}
		in.StartTime = &at
	}
	return in
}

func (b *BookingBuilder) BuildQuoteDTO() reqdto.QuoteRequest {
	return reqdto.QuoteRequest{
		Service: b.Service,
		AddOns:  b.AddOns,
		Date:    b.Date.Format(calendar.DateLayout),
	}
}

// NextWeekday returns the first Monday-to-Friday date strictly after from.
func NextWeekday(from time.Time, loc *time.Location) time.Time {
	d := from.In(loc)
	day := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// NextSaturday returns the first Saturday strictly after from.
func NextSaturday(from time.Time, loc *time.Location) time.Time {
	d := from.In(loc)
	day := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
	for day.Weekday() != time.Saturday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
