package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticRegistry(t *testing.T) {
	reg := Static{ModuleCRM: true, ImportExport: false}

	assert.True(t, reg.Enabled(ModuleCRM))
	assert.False(t, reg.Enabled(ImportExport))
	assert.False(t, reg.Enabled("unknown_module"))
}

func TestInMemoryRegistry(t *testing.T) {
	reg := NewInMemory()
	assert.False(t, reg.Enabled(ModuleHR))

	reg.Set(ModuleHR, true)
	assert.True(t, reg.Enabled(ModuleHR))

	reg.Set(ModuleHR, false)
	assert.False(t, reg.Enabled(ModuleHR))
}

func TestAllEnabled(t *testing.T) {
	reg := AllEnabled(ModuleCRM, ModuleHR)
	assert.True(t, reg.Enabled(ModuleCRM))
	assert.True(t, reg.Enabled(ModuleHR))
	assert.False(t, reg.Enabled(ModuleWarehouse))
}
