// Command flagctl reads and writes fast flags in a running client.
package main

func main() {
	execute()
}
