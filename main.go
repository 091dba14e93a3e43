package main

import "connexa-backend/cmd"

func main() {
	cmd.Run()
}
