package gallery

// State is the open/closed state of the lightbox.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// ParseState reads a state from a query value; anything but "open" is Closed.
func ParseState(raw string) State {
	if raw == "open" {
		return Open
	}
	return Closed
}

// Keys handled while the lightbox is open.
const (
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// Lightbox is the modal enlarged view over the page carousel. It has no position of its own:
// navigating inside it moves the page carousel. Every event other than Open is ignored while
// closed.
type Lightbox struct {
	state State
	page  *Carousel
}

// RestoreLightbox rebuilds a lightbox from request state, bound to page.
func RestoreLightbox(state State, page *Carousel) Lightbox {
	if state != Open {
		return Lightbox{page: page}
	}
	return Lightbox{state: Open, page: page}
}

func (l Lightbox) State() State { return l.state }

func (l Lightbox) IsOpen() bool { return l.state == Open }

// Open shows the lightbox at the page carousel's current image.
func (l *Lightbox) Open() { l.state = Open }

// Close dismisses the lightbox via its close control.
func (l *Lightbox) Close() { l.state = Closed }

// ClickOutside dismisses the lightbox when a click lands outside its bounds.
func (l *Lightbox) ClickOutside() {
	if l.state == Open {
		l.state = Closed
	}
}

// Key handles a keyboard event and reports whether it had any effect.
func (l *Lightbox) Key(key string) bool {
	if l.state != Open {
		return false
	}
	switch key {
	case KeyEscape:
		l.state = Closed
	case KeyArrowLeft:
		l.Prev()
	case KeyArrowRight:
		l.Next()
	default:
		return false
	}
	return true
}

func (l *Lightbox) Next() {
	if l.state == Open && l.page != nil {
		l.page.Next()
	}
}

func (l *Lightbox) Prev() {
	if l.state == Open && l.page != nil {
		l.page.Prev()
	}
}

func (l *Lightbox) Select(i int) {
	if l.state == Open && l.page != nil {
		l.page.Select(i)
	}
}
