package display

import (
	"fmt"
	"io"

	"github.com/backmassage/dsconvert/internal/term"
)

// PrintBanner writes the ASCII art banner to w, in Magenta when p has colors.
func PrintBanner(w io.Writer, p term.Palette) {
	fmt.Fprint(w, p.Magenta)
	fmt.Fprint(w, `     _                                _
  __| |___  ___ ___  _ ____   _____ _ __| |_
 / _`+"`"+` / __|/ __/ _ \| '_ \ \ / / _ \ '__| __|
| (_| \__ \ (_| (_) | | | \ V /  __/ |  | |_
 \__,_|___/\___\___/|_| |_|\_/ \___|_|   \__|
`)
	fmt.Fprint(w, p.NC)
}
