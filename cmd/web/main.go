package main

import "circle_backend/internal/app"

func main() {
	app.Run()
}
