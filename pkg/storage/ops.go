package storage

// Operation names understood by filesystem-shaped providers. The generator
// issues these through Exec/Query; providers map them onto their medium.
const (
	OpEnsureDir = "generator.ensure_dir"
	OpWrite     = "generator.write"
	OpRead      = "generator.read"
	OpRemove    = "generator.remove"
)
