// Command blog renders Markdown content into a static site.
package main

import (
	"os"

	"github.com/Nathan-Furnal/blog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
