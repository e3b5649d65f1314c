package allocation

import (
	"fmt"

	"github.com/roach88/h2prov/internal/domain"
)

// NewInventoryError creates the error raised when a storage unit cannot
// satisfy a requested amount of one RFNBO class.
func NewInventoryError(storageUnitID string, requested, available float64, class domain.RFNBO) *domain.Error {
	return &domain.Error{
		Code: domain.ErrCodeInventoryExhausted,
		Message: fmt.Sprintf("storage unit %s cannot provide %s kg of %s hydrogen (available %s kg)",
			storageUnitID, formatAmount(requested), class, formatAmount(available)),
		IDs: []string{storageUnitID},
		Details: map[string]string{
			"storage_unit_id": storageUnitID,
			"requested":       formatAmount(requested),
			"available":       formatAmount(available),
			"rfnbo":           string(class),
		},
	}
}
