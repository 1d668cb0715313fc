package haus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatures_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Features
		want Features
	}{
		{name: "nil", in: nil, want: Features{}},
		{name: "uppercase", in: Features{"Waermepumpe"}, want: Features{"WAERMEPUMPE"}},
		{name: "trims and drops empty", in: Features{" pool ", ""}, want: Features{"POOL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestFeatures_ValueAndScan(t *testing.T) {
	v, err := Features{"WAERMEPUMPE", "POOL"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "WAERMEPUMPE,POOL", v)

	v, err = Features(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	tests := []struct {
		name string
		src  any
		want Features
	}{
		{name: "null", src: nil, want: Features{}},
		{name: "empty", src: "", want: Features{}},
		{name: "string", src: "WAERMEPUMPE,POOL", want: Features{"WAERMEPUMPE", "POOL"}},
		{name: "bytes", src: []byte("POOL"), want: Features{"POOL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Features
			require.NoError(t, f.Scan(tt.src))
			assert.Equal(t, tt.want, f)
		})
	}

	var f Features
	assert.Error(t, f.Scan(42))
}

func TestFeatures_Contains(t *testing.T) {
	f := Features{"WAERMEPUMPE"}
	assert.True(t, f.Contains("waermepumpe"))
	assert.False(t, f.Contains("POOL"))
}

func TestArt_Valid(t *testing.T) {
	for _, a := range Arten {
		assert.True(t, a.Valid())
	}
	assert.False(t, Art("REIHENHAU").Valid())
	assert.False(t, Art("").Valid())
}
