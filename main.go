// main is the entry point of the filepulse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/filepulse/cmd"
)

func main() {
	err := cmd.Execute()
	cmd.Close()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
