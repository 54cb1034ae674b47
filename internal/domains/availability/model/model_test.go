package model_test

import (
	"innkeep/internal/domains/availability/model"
	"innkeep/shared/failure"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStay(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		nights   int
		wantErr  bool
	}{
		{name: "four nights", checkIn: "2026-03-01", checkOut: "2026-03-05", nights: 4},
		{name: "single night across month end", checkIn: "2026-02-28", checkOut: "2026-03-01", nights: 1},
		{name: "zero length", checkIn: "2026-03-10", checkOut: "2026-03-10", wantErr: true},
		{name: "reversed", checkIn: "2026-03-10", checkOut: "2026-03-05", wantErr: true},
		{name: "bad date", checkIn: "2026-13-01", checkOut: "2026-03-05", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stay, err := model.ParseStay(tt.checkIn, tt.checkOut)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, failure.IsKind(err, failure.KindValidation))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.nights, stay.Nights())
		})
	}
}

func TestGuests_Validate(t *testing.T) {
	tests := []struct {
		name    string
		guests  model.Guests
		wantErr bool
	}{
		{name: "adults only", guests: model.Guests{Adults: 2}},
		{name: "newborn is age zero", guests: model.Guests{Adults: 1, Children: []model.Child{{Age: 0}}}},
		{name: "no adults", guests: model.Guests{Adults: 0, Children: []model.Child{{Age: 5}}}, wantErr: true},
		{name: "negative age", guests: model.Guests{Adults: 2, Children: []model.Child{{Age: -1}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guests.Validate()

			if tt.wantErr {
				assert.True(t, failure.IsKind(err, failure.KindValidation))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestGuests_AgesRoundTrip(t *testing.T) {
	guests := model.Guests{Adults: 2, Children: []model.Child{{Age: 2}, {Age: 14}}}

	assert.Equal(t, []int64{2, 14}, guests.Ages())
	assert.Equal(t, guests, model.GuestsFromAges(2, guests.Ages()))
	assert.Equal(t, 4, guests.Total())
}
