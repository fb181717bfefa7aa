package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleType_IsValid(t *testing.T) {
	tests := []struct {
		name       string
		moduleType ModuleType
		want       bool
	}{
		{"clientes", ModuleCustomers, true},
		{"contratos", ModuleContracts, true},
		{"products", ModuleType("products"), false},
		{"empty", ModuleType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.moduleType.IsValid())
		})
	}
}

func TestModuleType_DialogID(t *testing.T) {
	assert.Equal(t, "clientesPreviewModal", ModuleCustomers.DialogID())
	assert.Equal(t, "contratosPreviewModal", ModuleContracts.DialogID())
}

func TestParseModuleType(t *testing.T) {
	m, err := ParseModuleType("contratos")
	require.NoError(t, err)
	assert.Equal(t, ModuleContracts, m)

	_, err = ParseModuleType("Clientes")
	assert.Error(t, err)
}
