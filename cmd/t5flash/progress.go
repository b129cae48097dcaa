package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/moffa90/go-t5flash/bootloader"
)

// progressPrinter renders per-sector progress as a single updating line.
type progressPrinter struct {
	w     io.Writer
	width int
	open  bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, width: 30}
}

func (pp *progressPrinter) Print(p bootloader.Progress) {
	switch p.Stage {
	case bootloader.StageErase, bootloader.StageWrite, bootloader.StageRead:
		if p.Total == 0 {
			return
		}
		filled := int(float64(pp.width) * p.Percentage / 100)
		if filled > pp.width {
			filled = pp.width
		}
		bar := strings.Repeat("#", filled) + strings.Repeat(".", pp.width-filled)
		fmt.Fprintf(pp.w, "\r%-6s [%s] %5.1f%% %d/%d %s", p.Stage, bar, p.Percentage, p.Current, p.Total, p.Message)
		pp.open = true
		if p.Current == p.Total {
			pp.newline()
		}
	case bootloader.StageVerify:
		if p.Current == p.Total && p.Total > 0 {
			pp.newline()
			fmt.Fprintf(pp.w, "verify %s\n", p.Message)
		}
	case bootloader.StageCompleted:
		pp.newline()
	case bootloader.StageFailed:
		pp.newline()
	default:
		pp.newline()
		if p.Message != "" {
			fmt.Fprintf(pp.w, "%s: %s\n", p.Stage, p.Message)
		}
	}
}

func (pp *progressPrinter) newline() {
	if pp.open {
		fmt.Fprintln(pp.w)
		pp.open = false
	}
}
