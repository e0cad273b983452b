package main

import (
	"os"

	_ "github.com/viant/afsc/aws"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
	cli "github.com/viant/llmdispatch/cmd/llmdispatch"
)

func main() {
	cli.RunWithCommands(os.Args[1:])
}
