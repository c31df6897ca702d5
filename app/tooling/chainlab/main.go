package main

import "github.com/ardanlabs/chainlab/app/tooling/chainlab/cmd"

func main() {
	cmd.Execute()
}
