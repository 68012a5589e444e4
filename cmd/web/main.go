package main

import "campusnest_backend/internal/app"

func main() {
	app.Run()
}
