package micdsp

// IntSlider describes an integer slider shown by the host's property form.
type IntSlider struct {
	Key         string
	Description string
	Min         int
	Max         int
	Step        int
}

// Clamp limits v to the slider range.
func (s IntSlider) Clamp(v int) int {
	return max(s.Min, min(v, s.Max))
}

// Properties is the ordered list of controls a source exposes.
type Properties struct {
	sliders []IntSlider
}

// NewProperties creates an empty property list.
func NewProperties() *Properties {
	return &Properties{}
}

// AddIntSlider appends an integer slider and returns a copy of it.
func (p *Properties) AddIntSlider(key, description string, minValue, maxValue, step int) IntSlider {
	slider := IntSlider{
		Key:         key,
		Description: description,
		Min:         minValue,
		Max:         maxValue,
		Step:        step,
	}
	p.sliders = append(p.sliders, slider)
	return slider
}

// IntSlider looks a slider up by key.
func (p *Properties) IntSlider(key string) (IntSlider, bool) {
	for _, s := range p.sliders {
		if s.Key == key {
			return s, true
		}
	}
	return IntSlider{}, false
}

// Sliders returns the sliders in insertion order.
func (p *Properties) Sliders() []IntSlider {
	out := make([]IntSlider, len(p.sliders))
	copy(out, p.sliders)
	return out
}
