package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/scitags/nlcodec/api"
	"github.com/spf13/cobra"
)

func init() {
	decodeCmd.Flags().BoolVar(&decodeHex, "hex", false, "the input is hex encoded (whitespace is ignored)")
	decodeCmd.Flags().BoolVar(&decodeStrict, "strict", false, "fail on messages without a registered family")
	decodeCmd.Flags().StringVar(&decodeVerbosity, "verbosity", "", "JSON view of conntrack entries: structs or lean")
}

var (
	decodeHex       bool
	decodeStrict    bool
	decodeVerbosity string

	decodeCmd = &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a captured netlink datagram (- for stdin).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConf()
			if err != nil {
				return err
			}
			if decodeStrict {
				conf.Codec.Strict = true
			}

			codec, _, err := createCodec(conf)
			if err != nil {
				return err
			}

			raw, err := readInput(args[0])
			if err != nil {
				return err
			}

			dump, err := codec.DecodeDump(raw)
			if err != nil {
				return fmt.Errorf("error decoding %q: %w", args[0], err)
			}

			for _, m := range dump.Messages {
				slog.Debug("decoded message", MsgTypeKey, m.Header.Type, MsgFlagsKey, m.Header.Flags,
					"family", codec.FamilyName(m.Header.Type), "flags", codec.Flags(m.Header))
				if v, ok := m.Body.(interface{ SetVerbosity(string) }); ok {
					v.SetVerbosity(decodeVerbosity)
				}
			}
			if !dump.Complete() {
				slog.Warn("the datagram ended before NLMSG_DONE", "messages", len(dump.Messages))
			}

			out, err := json.MarshalIndent(dump, "", api.JSON_PRETTY_INDENT)
			if err != nil {
				return fmt.Errorf("error marshalling the messages: %w", err)
			}
			fmt.Println(string(out))

			return nil
		},
	}
)

func readInput(path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}

	if !decodeHex {
		return raw, nil
	}

	b, err := hex.DecodeString(strings.Join(strings.Fields(string(raw)), ""))
	if err != nil {
		return nil, fmt.Errorf("error decoding the hex in %q: %w", path, err)
	}
	return b, nil
}
