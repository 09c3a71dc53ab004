// Command matrix-engine runs the broker, a worker, or a client of the
// distributed matrix multiplication service.
package main

import "yqhp/matrix-engine/cmd"

func main() {
	cmd.Execute()
}
