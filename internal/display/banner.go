package display

import (
	"fmt"
	"io"

	"github.com/backmassage/mp4ify/internal/term"
)

const banner = `                 _  _    _  __
 _ __ ___  _ __ | || |  (_)/ _|_   _
| '_ ` + "`" + ` _ \| '_ \| || |_ | | |_| | | |
| | | | | | |_) |__   _|| |  _| |_| |
|_| |_| |_| .__/   |_|  |_|_|  \__, |
          |_|                  |___/
`

// PrintBanner writes the ASCII art banner and version to w, in magenta when
// colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta+banner+term.NC)
	fmt.Fprintf(w, "  v%s\n\n", version)
}
