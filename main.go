package main

import "github.com/vitordossantos/NUCoffea/cmd"

func main() {
	cmd.Execute()
}
