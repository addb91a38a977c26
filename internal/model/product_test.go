package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-15T22:10:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "2024-03-15", FormatDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Luxury Goods")
	assert.True(t, ok)
	assert.Equal(t, CategoryLuxuryGoods, c)

	_, ok = ParseCategory("luxury goods")
	assert.False(t, ok)
	_, ok = ParseCategory("Weapons")
	assert.False(t, ok)
	assert.Len(t, Categories, 10)
}

func TestManufacturerRecord_IsRegistered(t *testing.T) {
	var nilRec *ManufacturerRecord

	assert.False(t, nilRec.IsRegistered())
	assert.Nil(t, nilRec.Public())
	assert.False(t, (&ManufacturerRecord{IsVerified: true}).IsRegistered())
	assert.True(t, (&ManufacturerRecord{Name: "Acme"}).IsRegistered())
}
