package bulk

import (
	"fmt"

	"github.com/erp/importer/internal/domain/shared"
)

// ModuleType is the entity kind being imported. It selects both the preview
// layout on the client and the processing logic on the backend.
type ModuleType string

const (
	ModuleCustomers ModuleType = "clientes"
	ModuleContracts ModuleType = "contratos"
)

// ModuleTypes lists every supported module type in display order
var ModuleTypes = []ModuleType{ModuleCustomers, ModuleContracts}

// IsValid checks if the module type is supported
func (m ModuleType) IsValid() bool {
	switch m {
	case ModuleCustomers, ModuleContracts:
		return true
	}
	return false
}

// DialogID returns the element id of the preview dialog for this kind.
// There is never more than one dialog per id in a document.
func (m ModuleType) DialogID() string {
	return string(m) + "PreviewModal"
}

// Noun returns the plural noun used in user-facing messages
func (m ModuleType) Noun() string {
	return string(m)
}

// ParseModuleType converts a string into a ModuleType
func ParseModuleType(s string) (ModuleType, error) {
	m := ModuleType(s)
	if !m.IsValid() {
		return "", ErrInvalidModuleType(s)
	}
	return m, nil
}

// ErrInvalidModuleType returns the domain error for an unsupported module type
func ErrInvalidModuleType(s string) error {
	return shared.NewDomainError("INVALID_MODULE_TYPE", fmt.Sprintf("Invalid module type: %s", s))
}
