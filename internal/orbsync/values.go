package orbsync

import "github.com/shopspring/decimal"

// numeric parses one of Orb's decimal-string amounts for a numeric column.
// Unparseable input binds NULL rather than failing the whole record.
func numeric(s string) any {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return d
}

func numericPtr(s *string) any {
	if s == nil {
		return nil
	}
	return numeric(*s)
}
