// Command racfctl exercises the RACF listing grammars and command renderer
// offline, without a host connection.
package main

func main() {
	Execute()
}
