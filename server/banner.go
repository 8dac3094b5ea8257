package server

import "fmt"

// PrintBanner writes the startup banner to stdout. Cosmetic only.
func PrintBanner() {
	fmt.Println("\n __  __  ____ ____    ____  _____ _____")
	fmt.Println("|  \\/  |/ ___|  _ \\  |  _ \\| ____|  ___|")
	fmt.Println("| |\\/| | |   | |_) | | |_) |  _| | |_")
	fmt.Println("| |  | | |___|  __/  |  _ <| |___|  _|")
	fmt.Println("|_|  |_|\\____|_|     |_| \\_\\_____|_|")
	fmt.Println("Model Context Protocol Conformance Server")
	fmt.Println("2025-11-25 + Apps + Tasks")
	fmt.Println("____________________________________")
}
