package types

// Unit is one entry of a units file, keyed by the unit token used in
// vspec `unit` attributes (for example "km/h").
type Unit struct {
	// Key is the token vspec files reference. It is filled from the map key.
	Key string `yaml:"-"`

	// Definition is a human readable description of the unit.
	Definition string `yaml:"definition"`

	// Unit is the display symbol. Symbols must be unique across a registry.
	Unit string `yaml:"unit,omitempty"`

	// Quantity names the quantity this unit measures. It must exist in the
	// quantities file when one is loaded.
	Quantity string `yaml:"quantity"`

	// AllowedDatatypes restricts the primitive datatypes a signal with this
	// unit may use. Subtypes of a listed datatype are accepted too.
	AllowedDatatypes []string `yaml:"allowed-datatypes,omitempty"`
}

// Quantity is one entry of a quantities file.
type Quantity struct {
	Key        string `yaml:"-"`
	Definition string `yaml:"definition"`
	Comment    string `yaml:"comment,omitempty"`
	Remark     string `yaml:"remark,omitempty"`
}
