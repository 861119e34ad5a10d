package widgets

// Marquee scrolls text that is wider than its window one rune per step.
type Marquee struct {
	runes  []rune
	width  int
	offset int
}

// NewMarquee creates a marquee showing at most width runes.
func NewMarquee(text string, width int) *Marquee {
	m := &Marquee{width: width}
	m.SetText(text)
	return m
}

// SetText replaces the text and rewinds.
func (m *Marquee) SetText(text string) {
	m.runes = []rune(text)
	m.offset = 0
}

// Text returns the visible window without advancing.
func (m *Marquee) Text() string {
	if len(m.runes) <= m.width {
		return string(m.runes)
	}
	// a gap of four spaces separates the tail from the wrapped head
	loop := append(append([]rune{}, m.runes...), []rune("    ")...)
	out := make([]rune, m.width)
	for i := range out {
		out[i] = loop[(m.offset+i)%len(loop)]
	}
	return string(out)
}

// Step advances one rune and returns the new window.
func (m *Marquee) Step() string {
	if len(m.runes) > m.width {
		m.offset = (m.offset + 1) % (len(m.runes) + 4)
	}
	return m.Text()
}
