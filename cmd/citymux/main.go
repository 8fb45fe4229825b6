package main

import (
	"github.com/Gbr22/citymux/internal/cmd"
)

func main() {
	cmd.Execute()
}
