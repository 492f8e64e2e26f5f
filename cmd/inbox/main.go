package main

import "github.com/welldanyogia/seatea-inbox/internal/cli"

func main() {
	cli.Execute()
}
