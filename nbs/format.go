package nbs

import (
	"fmt"
	"slices"
	"strings"
)

// formatNotesByLayer formats the notes of layers into a table with one column
// per layer and one row per tick that holds at least one note.
// maxRows: limits the number of tick rows printed (0 prints every row).
// indent: number of spaces to indent the table.
func formatNotesByLayer(layers []IndexedLayer, maxRows int, indent int) string {
	if len(layers) == 0 {
		return ""
	}

	// Collect the populated ticks across all layers, in order.
	seen := make(map[int]bool)
	var ticks []int
	for _, il := range layers {
		for _, tn := range il.Layer.notes {
			if !seen[tn.Tick] {
				seen[tn.Tick] = true
				ticks = append(ticks, tn.Tick)
			}
		}
	}
	slices.Sort(ticks)
	truncated := maxRows > 0 && len(ticks) > maxRows
	if truncated {
		ticks = ticks[:maxRows]
	}

	headers := make([]string, len(layers))
	for i, il := range layers {
		headers[i] = il.Layer.name
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("Layer %d", il.Index)
		}
	}

	// Calculate column widths, the first column holds the tick.
	tickWidth := max(len("Tick"), len(fmt.Sprint(lastOf(ticks))))
	widths := make([]int, len(layers))
	for i, il := range layers {
		widths[i] = len(headers[i])
		for _, t := range ticks {
			if n, ok := il.Layer.NoteAt(t); ok {
				widths[i] = max(widths[i], len(n.String()))
			}
		}
		// Set a minimum width for nicer output
		widths[i] = max(widths[i], 10)
	}

	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var b strings.Builder
	separator := func() {
		b.WriteString(strings.Repeat(" ", indent))
		b.WriteString("+")
		b.WriteString(strings.Repeat("-", tickWidth+2))
		for _, w := range widths {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", w+2)) // +2 for the space padding either side
		}
		b.WriteString("+\n")
	}
	row := func(first string, cells []string) {
		b.WriteString(strings.Repeat(" ", indent))
		b.WriteString("| ")
		b.WriteString(padRight(first, tickWidth))
		b.WriteString(" ")
		for i, cell := range cells {
			b.WriteString("| ")
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}

	separator()
	row("Tick", headers)
	separator()
	cells := make([]string, len(layers))
	for _, t := range ticks {
		for i, il := range layers {
			cells[i] = ""
			if n, ok := il.Layer.NoteAt(t); ok {
				cells[i] = n.String()
			}
		}
		row(fmt.Sprint(t), cells)
	}
	if truncated {
		for i := range cells {
			cells[i] = "..."
		}
		row("...", cells)
	}
	separator()

	return b.String()
}

func lastOf(s []int) int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Number of tick rows printed by String.
const stringMaxRows = 32

// Pretty-print
func (s Song) String() string {
	h := s.header
	var b strings.Builder
	b.WriteString("Note Block Song:\n")
	fmt.Fprintf(&b, "- Name: %s\n", h.Name)
	fmt.Fprintf(&b, "- Author: %s\n", h.Author)
	if h.OriginalAuthor != "" {
		fmt.Fprintf(&b, "- Original author: %s\n", h.OriginalAuthor)
	}
	fmt.Fprintf(&b, "- Format version: %s\n", s.version)
	fmt.Fprintf(&b, "- Length: %d tick", h.Length)
	if h.Length != 1 {
		b.WriteString("s") // Pluralise the word "tick" if needed.
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Tempo: %.2f ticks per second\n", float64(h.Tempo)/100)
	fmt.Fprintf(&b, "- Time signature: %d/4\n", h.TimeSignature)
	if h.Looping {
		fmt.Fprintf(&b, "- Loops from tick %d", h.LoopStartTick)
		if h.MaxLoopCount == 0 {
			b.WriteString(" forever\n")
		} else {
			fmt.Fprintf(&b, " %d times\n", h.MaxLoopCount)
		}
	}
	fmt.Fprintf(&b, "- Layers: %d\n", s.LayerCount())
	fmt.Fprintf(&b, "- Notes: %d\n", s.NoteCount())
	if len(s.instruments) > 0 {
		b.WriteString("- Custom instruments:\n")
		for i, inst := range s.instruments {
			fmt.Fprintf(&b, "  - #%d %s (%s, key %d)\n", h.VanillaInstrumentCount+i, inst.name, inst.file, inst.key)
		}
	}

	b.WriteString(formatNotesByLayer(s.layers, stringMaxRows, 2))
	return b.String()
}
