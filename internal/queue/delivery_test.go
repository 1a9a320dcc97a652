package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadEncoder(t *testing.T) {
	enc := PayloadEncoder{}

	payload, err := enc.Encode(42, "  Jean Dupont ", "vip", "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, "TKT-42-VIP-JEAN DUPONT", string(payload))

	_, err = enc.Encode(0, "Jean", "standard", "TXN-1")
	assert.Error(t, err)
}
