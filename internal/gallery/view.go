package gallery

// Slide is one image of the gallery as rendered.
type Slide struct {
	Index  int
	Src    string
	Thumb  string
	Active bool
}

// View is the template model of the page gallery plus lightbox. Both show the same image.
type View struct {
	Slides       []Slide
	Current      Slide
	LightboxOpen bool
	Index        int
	Len          int
}

// Render builds the view for the given images; thumbs may be shorter than images, in which
// case the full image doubles as its thumbnail.
func Render(images, thumbs []string, page Carousel, lb Lightbox) View {
	idx := clamp(page.Index(), len(images))
	v := View{
		Index:        idx,
		LightboxOpen: lb.IsOpen(),
		Len:          len(images),
	}
	v.Slides = slides(images, thumbs, idx)
	if len(images) > 0 {
		v.Current = v.Slides[idx]
	}
	return v
}

func clamp(i, n int) int {
	if i < 0 || i >= n {
		return 0
	}
	return i
}

func slides(images, thumbs []string, active int) []Slide {
	out := make([]Slide, len(images))
	for i, src := range images {
		thumb := src
		if i < len(thumbs) && thumbs[i] != "" {
			thumb = thumbs[i]
		}
		out[i] = Slide{Index: i, Src: src, Thumb: thumb, Active: i == active}
	}
	return out
}
