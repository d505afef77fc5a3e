package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

func TestDefaultFeeSchedule(t *testing.T) {
	fee, err := DefaultFeeSchedule().GetFee(context.Background(), uuid.New(), slot.TypeVideo)
	require.NoError(t, err)

	assert.True(t, fee.ConsultationFee.Equal(decimal.NewFromInt(500)), fee.ConsultationFee.String())
	assert.True(t, fee.PlatformFee.Equal(decimal.NewFromInt(50)), fee.PlatformFee.String())
	assert.True(t, fee.Total().Equal(decimal.NewFromInt(550)), fee.Total().String())
	assert.Equal(t, "INR", fee.Currency)
}
