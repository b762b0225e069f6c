package main

import "portgrab/internal/cli"

func main() {
	cli.Execute()
}
