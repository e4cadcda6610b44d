// This program inspects and extends the chain held by a ledger service.
package main

import "github.com/ardanlabs/ledgerview/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
