package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/stratum/internal/config"
	"github.com/muurk/stratum/internal/dump"
	"github.com/muurk/stratum/internal/feed"
	"github.com/muurk/stratum/internal/icmpv6"
	"github.com/muurk/stratum/internal/ipv6"
	"github.com/muurk/stratum/internal/layer"
	"github.com/muurk/stratum/internal/logging"
	"github.com/muurk/stratum/internal/ndp"
	"github.com/muurk/stratum/internal/ssh2"
)

// Command flags
var (
	protoName  string
	hexInput   bool
	colorMode  string
	listenAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&protoName, "proto", "", "Entry protocol (ipv6, icmpv6, ndopt, ssh2)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "Colored output: auto, always, never")

	listenCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address for the websocket feed")
	decodeCmd.Flags().BoolVar(&hexInput, "hex", false, "Treat input as whitespace-separated hex text")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(listenCmd)
}

// entryDecoder returns the direct decode function for the --proto flag.
// Unlike registry dispatch, a direct decode surfaces errors to the caller.
func entryDecoder(name string) (func([]byte) (layer.Layer, error), error) {
	switch name {
	case "ipv6":
		return func(raw []byte) (layer.Layer, error) { return ipv6.Decode(raw) }, nil
	case "icmpv6":
		return func(raw []byte) (layer.Layer, error) { return icmpv6.Decode(raw) }, nil
	case "ndopt":
		return func(raw []byte) (layer.Layer, error) { return ndp.DecodeRedirectedHeaderOption(raw) }, nil
	case "ssh2":
		return func(raw []byte) (layer.Layer, error) { return ssh2.Decode(raw) }, nil
	case "":
		return nil, fmt.Errorf("--proto is required (ipv6, icmpv6, ndopt, ssh2)")
	default:
		return nil, fmt.Errorf("unknown protocol %q (ipv6, icmpv6, ndopt, ssh2)", name)
	}
}

// setup loads the config file and initializes logging, and resolves flag
// defaults from the config.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, err
	}
	if colorMode == "" {
		colorMode = cfg.Color
	}
	if listenAddr == "" {
		listenAddr = cfg.ListenAddr
	}
	return cfg, nil
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode one captured buffer and dump its layer chain",
	Long: `Decode a captured byte buffer from a file (or stdin when the argument
is "-" or absent) and dump the resulting layer chain.

With --hex the input is parsed as hex text; whitespace is ignored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(); err != nil {
			return err
		}
		defer logging.Sync()

		decode, err := entryDecoder(protoName)
		if err != nil {
			return err
		}

		raw, err := readInput(args)
		if err != nil {
			return err
		}
		logging.LogRawBytes("Input buffer", raw)

		l, err := decode(raw)
		if err != nil {
			return err
		}

		fmt.Print(dump.NewRenderer(colorMode).Render(l))
		return nil
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Receive binary frames over websocket and dump each one",
	Long: `Start a websocket endpoint and dump every received binary frame as the
selected entry protocol. Frames that fail to decode are reported and
skipped; the feed keeps running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(); err != nil {
			return err
		}
		defer logging.Sync()

		decode, err := entryDecoder(protoName)
		if err != nil {
			return err
		}
		renderer := dump.NewRenderer(colorMode)

		server := feed.New(listenAddr, func(remoteAddr string, frame []byte) {
			l, err := decode(frame)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", remoteAddr, err)
				return
			}
			fmt.Printf("[%s]\n%s\n", remoteAddr, renderer.Render(l))
		})
		return server.ListenAndServe()
	},
}

// readInput reads the buffer to decode from the file argument or stdin.
func readInput(args []string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if hexInput {
		cleaned := strings.Join(strings.Fields(string(data)), "")
		data, err = hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to parse hex input: %w", err)
		}
	}
	return data, nil
}
