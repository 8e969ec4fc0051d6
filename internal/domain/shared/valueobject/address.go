package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the customer's shipping address as captured on the order.
// The return-shipping calculator only cares about the zone it falls into.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsEmpty reports whether no location field is set
func (a Address) IsEmpty() bool {
	return a.Country == "" && a.Region == "" && a.City == "" && a.PostalCode == "" && a.Line1 == ""
}

// Zone returns the shipping zone key, "COUNTRY" or "COUNTRY-REGION".
func (a Address) Zone() string {
	country := strings.ToUpper(strings.TrimSpace(a.Country))
	region := strings.ToUpper(strings.TrimSpace(a.Region))
	if region == "" {
		return country
	}
	return country + "-" + region
}

// Value implements driver.Valuer; the address is stored as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 || string(data) == "null" {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
