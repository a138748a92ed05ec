package main

import (
	"github.com/livecodelang/lcl/cmd"
)

var version = "v0.1.0"

func main() {
	cmd.Execute(version)
}
