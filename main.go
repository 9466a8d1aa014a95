package main

import "github.com/jsvoboda/geoattend/cmd"

func main() {
	cmd.Execute()
}
