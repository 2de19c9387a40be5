// Package features embeds the shop's feature files so the binary can run
// without a checked-out workspace.
package features

import "embed"

//go:embed *.feature
var FS embed.FS
