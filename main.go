package main

import (
	"github.com/Sozary/tidsreg/cmd"
)

func main() {
	cmd.Execute()
}
