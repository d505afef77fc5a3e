// Package pricing is the boundary to the fee-computation collaborator.
// The engine never decides prices; it asks a FeeSchedule and records the
// breakdown on the appointment.
package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

// Fee is the per-booking price breakdown.
type Fee struct {
	ConsultationFee decimal.Decimal
	PlatformFee     decimal.Decimal
	Currency        string
}

func (f Fee) Total() decimal.Decimal {
	return f.ConsultationFee.Add(f.PlatformFee)
}

type FeeSchedule interface {
	GetFee(ctx context.Context, doctorID uuid.UUID, consultationType slot.ConsultationType) (Fee, error)
}

// StaticFeeSchedule returns the same fee for every doctor and type. It
// stands in for the real pricing service.
type StaticFeeSchedule struct {
	ConsultationFee decimal.Decimal
	PlatformPercent decimal.Decimal
	Currency        string
}

// DefaultFeeSchedule mirrors the launch pricing: flat 500 INR consultation
// fee plus a 10% platform fee.
func DefaultFeeSchedule() StaticFeeSchedule {
	return StaticFeeSchedule{
		ConsultationFee: decimal.NewFromInt(500),
		PlatformPercent: decimal.NewFromFloat(0.10),
		Currency:        "INR",
	}
}

func (s StaticFeeSchedule) GetFee(_ context.Context, _ uuid.UUID, _ slot.ConsultationType) (Fee, error) {
	return Fee{
		ConsultationFee: s.ConsultationFee,
		PlatformFee:     s.ConsultationFee.Mul(s.PlatformPercent),
		Currency:        s.Currency,
	}, nil
}
