// Command glossiad runs the glossia translation backend.
package main

func main() {
	Execute()
}
