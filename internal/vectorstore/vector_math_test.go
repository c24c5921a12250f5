package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{0.5, -0.25, 1e-7, 1e7},
		{0},
		{},
	}

	for _, v := range vectors {
		blob := serializeVector(v)
		got, err := deserializeVector(blob)
		require.NoError(t, err)
		if len(v) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, v, got)
	}
}

func TestDeserializeInvalidLength(t *testing.T) {
	_, err := deserializeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
