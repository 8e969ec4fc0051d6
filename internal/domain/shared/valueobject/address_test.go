package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_Zone(t *testing.T) {
	assert.Equal(t, "US-CA", Address{Country: "us", Region: " ca "}.Zone())
	assert.Equal(t, "DE", Address{Country: "de"}.Zone())
	assert.Equal(t, "", Address{}.Zone())
}

func TestAddress_ValueScan(t *testing.T) {
	addr := Address{Line1: "1 Main St", City: "Austin", Region: "TX", PostalCode: "78701", Country: "US"}

	v, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, addr, scanned)

	empty, err := Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsEmpty())

	assert.Error(t, scanned.Scan(42))
}
