package main

import "github.com/fieldgate/fieldgate/cmd/fieldgate/cmd"

func main() {
	cmd.Execute()
}
