// Stratum is a layered binary-protocol codec toolbox.
//
// It decodes captured byte buffers into structured protocol layers and dumps
// them, either from files/stdin or from a websocket frame feed:
//
//   - decode: parse a buffer from a file or stdin and dump the layer chain
//   - listen: accept binary frames over websocket and dump each one
//
// See 'stratum --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/stratum/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Layered binary-protocol codec toolbox",
	Long: `Decode captured byte buffers into structured protocol layers.

Supported entry protocols:
  ipv6     IPv6 packet (40-byte fixed header + dispatched payload)
  icmpv6   ICMPv6 common packet
  ndopt    Neighbor discovery redirected-header option
  ssh2     SSH2 binary frame

Layers nested inside the entry protocol are resolved through the decoder
registry; unknown discriminators dump as opaque raw layers and undecodable
sub-layers are contained rather than aborting the dump.`,
	Version: version.Version,
	Example: `  # Dump an SSH2 binary frame captured to a file
  stratum decode --proto ssh2 frame.bin

  # Dump a redirected-header option from hex text on stdin
  cat option.hex | stratum decode --proto ndopt --hex -

  # Receive frames over websocket and dump each as an IPv6 packet
  stratum listen --proto ipv6 --addr localhost:8089`,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("stratum %s\n", version.Full()))
}
