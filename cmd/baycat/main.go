package main

import (
	"os"
)

func main() {
	if err := rootCommand.Execute(); err != nil {
		fail(err)
		os.Exit(exitCodeForError(err))
	}
}
