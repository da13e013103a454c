package main

import "acquittals/process/sanitize"

func main() {
	sanitize.Run()
}
