package main

import "github.com/Nenorae/PIFACE/cmd"

func main() {
	cmd.Execute()
}
