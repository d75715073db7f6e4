// README: Driver profile and status as exposed by the external directory.
package driver

import "strings"

// Status is the closed enumeration the rest of the system sees. The external
// directory stores status in mixed case ("Busy", "BUSY", "available"), so
// every value entering through the client goes through ParseStatus.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBusy      Status = "BUSY"
	StatusUnknown   Status = ""
)

func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "AVAILABLE":
		return StatusAvailable
	case "BUSY":
		return StatusBusy
	default:
		return StatusUnknown
	}
}

// Driver mirrors the directory's wire shape. The directory's update call
// requires the full profile payload, not a partial patch, which is why the
// client carries every field around.
type Driver struct {
	ID       int64   `json:"DriverId"`
	Name     string  `json:"DriverName"`
	Number   int64   `json:"DriverNumber"`
	Location string  `json:"DriverLocation"`
	Email    string  `json:"DriverEmail"`
	Status   string  `json:"DriverStatus"`
	Distance float64 `json:"Distance"`
}

// Available reports whether the driver can take an order, folding the
// directory's inconsistent casing.
func (d Driver) Available() bool {
	return ParseStatus(d.Status) == StatusAvailable
}
