// Package caption fits analysis text and a status note into the size a chat message allows.
package caption

const (
	// PhotoLimit is the caption budget when a chart image is attached.
	PhotoLimit = 1024
	// TextLimit is the budget for a text-only reply.
	TextLimit = 4096

	Ellipsis = "\n_(...text truncated)_"
)

// Note is one of the mutually exclusive status notes appended after the analysis.
type Note int

const (
	NoteNone Note = iota
	NotePathNotPlotted
	NotePathMissing
	NoteChartFailed
)

func (n Note) Text() string {
	switch n {
	case NotePathNotPlotted:
		return "\n\n_(Note: AI provided path data, but it could not be visualized. Showing historical data.)_"
	case NotePathMissing:
		return "\n\n_(Note: AI did not provide path data for plotting. Showing historical data.)_"
	case NoteChartFailed:
		return "\n\n⚠️ Chart generation failed."
	default:
		return ""
	}
}

// Budget is the larger text allowance when no chart is attached.
func (n Note) Budget() int {
	if n == NoteChartFailed {
		return TextLimit
	}
	return PhotoLimit
}

// SelectNote picks the note for a forecast delivery.
func SelectNote(imageProduced, blockPresent, pathPlotted bool) Note {
	switch {
	case !imageProduced:
		return NoteChartFailed
	case pathPlotted:
		return NoteNone
	case blockPresent:
		return NotePathNotPlotted
	default:
		return NotePathMissing
	}
}

// Compose joins base and note within the note's budget.
func Compose(base string, note Note) string {
	return ComposeWithin(base, note.Text(), note.Budget())
}

// ComposeWithin fits base followed by note into budget characters. The note is always kept whole
// when it fits; base is cut and marked with Ellipsis otherwise.
func ComposeWithin(base, note string, budget int) string {
	b, n, e := []rune(base), []rune(note), []rune(Ellipsis)
	if len(b)+len(n) <= budget {
		return base + note
	}

	room := budget - len(n) - len(e)
	if room > 0 {
		return string(b[:min(room, len(b))]) + Ellipsis + note
	}
	if len(n) <= budget {
		return note
	}
	return Truncate(note, budget, Ellipsis)
}

// Truncate cuts text to at most limit characters, ending with ellipsis when anything was removed.
func Truncate(text string, limit int, ellipsis string) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	e := []rune(ellipsis)
	if len(e) >= limit {
		return string(r[:max(limit, 0)])
	}
	return string(r[:limit-len(e)]) + ellipsis
}
