package model_test

import (
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/cinelive/reservation-engine/internal/model"
)

func TestPriceFor(t *testing.T) {
    st := model.Showtime{
        BasePriceCents: 1000,
        PriceOverrides: map[string]uint32{"VIP": 2500},
    }
    assert.Equal(t, uint32(2500), st.PriceFor("VIP"))
    assert.Equal(t, uint32(1000), st.PriceFor("STANDARD"))
    assert.Equal(t, uint32(1000), st.PriceFor(""))
}

func TestSeatLabel(t *testing.T) {
    s := model.Seat{RowLabel: "C", SeatNumber: 12}
    assert.Equal(t, "C12", s.Label())
}
