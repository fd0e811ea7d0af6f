package harmonics

// Morpher blends two captured spectra. Source and target are independent
// copies; edits to the states they were captured from never reach the
// Morpher.
type Morpher struct {
	source State
	target State
	amount float64
}

// NewMorpher returns a Morpher with silent source and target and amount 0.
func NewMorpher() *Morpher {
	return &Morpher{}
}

// SetSource captures s as the morph origin.
func (m *Morpher) SetSource(s State) {
	m.source = s
}

// SetTarget captures s as the morph destination.
func (m *Morpher) SetTarget(s State) {
	m.target = s
}

// SetAmount positions the blend, clamped to [0,1].
func (m *Morpher) SetAmount(a float64) {
	m.amount = clamp(a, 0, 1)
}

// Amount returns the current blend position.
func (m *Morpher) Amount() float64 {
	return m.amount
}

// Source returns a copy of the captured origin spectrum.
func (m *Morpher) Source() State {
	return m.source
}

// Target returns a copy of the captured destination spectrum.
func (m *Morpher) Target() State {
	return m.target
}

// CurrentState returns the blended spectrum. It depends only on (source,
// target, amount) and the returned copy shares nothing with m.
func (m *Morpher) CurrentState() State {
	out := m.source
	out.MorphTo(m.target, m.amount)
	return out
}
