package main

import "github.com/cokovskak/workloadgenerator/cmd"

func main() {
	cmd.Execute()
}
