package returns

import (
	"fmt"
	"strings"
)

// SequenceScopeRMA is the counter scope RMA numbers are drawn from
const SequenceScopeRMA = "rma"

// FormatRMANumber renders RMA-{STORECODE}-{TYPE}-{YYYY}-{0001}.
// Sequences above 9999 simply grow wider.
func FormatRMANumber(storeCode string, t Type, year int, seq int64) string {
	return fmt.Sprintf("RMA-%s-%s-%04d-%04d", strings.ToUpper(storeCode), t, year, seq)
}
