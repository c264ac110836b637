package app

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"feedgrid/internal/preferences"
)

// GridOptions controls how RenderGrid draws the feed preview.
type GridOptions struct {
	// Offset is the number of blank cells before the first item.
	Offset int
	Dark   bool
	// Color enables ANSI styling; leave it off when output is not a terminal.
	Color bool
}

const (
	blankCell = "·"

	ansiReset = "\x1b[0m"
	ansiDark  = "\x1b[97;40m"
	ansiLight = "\x1b[30;47m"
)

// RenderGrid writes ids as a grid of preferences.GridColumns columns,
// preceded by opts.Offset blank cells, the way the feed preview lays them out.
func RenderGrid(w io.Writer, ids []string, opts GridOptions) error {
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "(empty)")
		return err
	}

	offset := opts.Offset
	if offset < 0 || offset >= preferences.GridColumns {
		offset = 0
	}

	cells := make([]string, 0, offset+len(ids))
	for range offset {
		cells = append(cells, blankCell)
	}
	cells = append(cells, ids...)

	width := 0
	for _, c := range cells {
		width = max(width, utf8.RuneCountInString(c))
	}

	for start := 0; start < len(cells); start += preferences.GridColumns {
		end := min(start+preferences.GridColumns, len(cells))
		row := make([]string, 0, preferences.GridColumns)
		for _, c := range cells[start:end] {
			row = append(row, styleCell(fmt.Sprintf(" %-*s ", width, c), opts))
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}

func styleCell(s string, opts GridOptions) string {
	if !opts.Color {
		return s
	}
	if opts.Dark {
		return ansiDark + s + ansiReset
	}
	return ansiLight + s + ansiReset
}
