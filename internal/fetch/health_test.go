package fetch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/fetch"
)

func TestRegistry(t *testing.T) {
	registry := fetch.NewRegistry()
	registry.Register(fetch.NewClient(fetch.DefaultConfig("retailer")))
	registry.Register(fetch.NewClient(fetch.DefaultConfig("composition")))

	health, ok := registry.Health("retailer")
	require.True(t, ok)
	assert.Equal(t, "retailer", health.Name)
	assert.True(t, health.Healthy())

	_, ok = registry.Health("unknown")
	assert.False(t, ok)

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "composition", all[0].Name)
	assert.Equal(t, "retailer", all[1].Name)
}
