package enums

// ServiceType classifies a purchasable service.
type ServiceType string

const (
	ServiceTypeCine        ServiceType = "CINE"
	ServiceTypeEvento      ServiceType = "EVENTO"
	ServiceTypeSuscripcion ServiceType = "SUSCRIPCION"
)

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// UsesSeats reports whether purchases of the service pick seats from a grid.
func (s ServiceType) UsesSeats() bool {
	return s == ServiceTypeCine
}

// UsesTiers reports whether purchases of the service pick a ticket tier.
func (s ServiceType) UsesTiers() bool {
	return s == ServiceTypeEvento
}
