// Command tlpbridge runs a simulated PCIe TLP bridge with demo traffic.
package main

func main() {
	Execute()
}
