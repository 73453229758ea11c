package main

import "lingoconnect-backend/cmd"

func main() {
	cmd.Run()
}
