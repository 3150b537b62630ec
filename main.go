package main

import "dogfriendly-scraper/cmd"

func main() {
	cmd.Execute()
}
