// Command metareg administers the entity-type metadata registry.
package main

import "github.com/metaforge-io/metareg/internal/cli"

func main() {
	cli.Execute()
}
