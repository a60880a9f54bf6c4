package modkit

// Module is the surface a wired service exposes to its binary
type Module interface {
	// Name is used in logs
	Name() string

	// Ports returns the module's port set for cross wiring
	Ports() any
}
