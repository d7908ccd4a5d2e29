package main

import (
	"github.com/LENAX/plan-engine/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
