package main

import (
	"github.com/onflow/flow-slotpool/cmd/util/cmd"
)

func main() {
	cmd.Execute()
}
