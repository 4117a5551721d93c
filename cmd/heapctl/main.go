// Command heapctl replays allocation scripts against the heapkit allocator.
package main

func main() {
	execute()
}
