package nav

// Disclosure is the open/closed state of a header overlay: the desktop cart dropdown or the
// mobile menu drawer.
type Disclosure struct {
	open bool
}

// ParseDisclosure reads the state from a query value.
func ParseDisclosure(raw string) Disclosure {
	return Disclosure{open: raw == "open" || raw == "true"}
}

func (d Disclosure) IsOpen() bool { return d.open }

func (d *Disclosure) Open() { d.open = true }

func (d *Disclosure) Close() { d.open = false }

func (d *Disclosure) Toggle() { d.open = !d.open }

// ClickOutside closes the overlay.
func (d *Disclosure) ClickOutside() { d.open = false }

// Apply runs a named event: open, close, toggle or outside. Unknown events are ignored.
func (d *Disclosure) Apply(event string) {
	switch event {
	case "open":
		d.Open()
	case "close":
		d.Close()
	case "toggle":
		d.Toggle()
	case "outside":
		d.ClickOutside()
	}
}

func (d Disclosure) String() string {
	if d.open {
		return "open"
	}
	return "closed"
}
