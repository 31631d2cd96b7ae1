package main

import (
	"github.com/foomo/recordstore/cmd"
)

func main() {
	cmd.Execute()
}
