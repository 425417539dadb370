package main

import (
	"github.com/manav03panchal/clockset/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.Die(err)
	}
}
