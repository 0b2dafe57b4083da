package main

import (
	"fmt"

	"flowpool/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cmd.Execute(fmt.Sprintf("%s-%s", version, commit))
}
