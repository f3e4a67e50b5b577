package totals

import "gestcom/internal/core/types"

// Defaults applied when no setting is configured for a date.
var (
	DefaultVATRate     = types.MustMoney("0.19")
	DefaultFiscalStamp = types.MustMoney("1.000")
)
