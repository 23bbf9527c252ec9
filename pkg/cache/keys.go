package cache

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey is the key of the layout of a topology.
	LayoutKey(topologyHash string, opts LayoutKeyOpts) string
	// ArtifactKey is the key of a rendering of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the topology that change a layout.
type LayoutKeyOpts struct {
	Scope      string `json:"scope"`
	ParamsHash string `json:"params_hash"`
	HintsHash  string `json:"hints_hash,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
}

// ArtifactKeyOpts are the inputs besides the layout that change a rendering.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Labels   bool   `json:"labels,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes its inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() *DefaultKeyer { return &DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(topologyHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", topologyHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
