package main

import (
	"github.com/mumoshu/fmharness/cmd"
)

func main() {
	cmd.MustRun()
}
