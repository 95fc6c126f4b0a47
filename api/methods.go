package api

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxBodySize is plenty for a netlink datagram: the kernel caps dumps at
// 32 KiB per recvmsg(2).
const maxBodySize = 1 << 20

func handleRoot(c echo.Context) error {
	cc := c.(*extendedContext)
	return c.JSONPretty(http.StatusOK, &rootResponse{
		ApiRoutes: cc.apiRoutes,
	}, JSON_PRETTY_INDENT)
}

func handleFamilies(c echo.Context) error {
	cc := c.(*extendedContext)
	return c.JSONPretty(http.StatusOK, cc.codec.Families(), JSON_PRETTY_INDENT)
}

// handleDecode decodes the request body as a sequence of netlink messages.
// The body is taken as raw bytes unless ?encoding=hex is passed, in which
// case whitespace is ignored.
func handleDecode(c echo.Context) error {
	cc := c.(*extendedContext)

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
	if err != nil {
		return c.JSONPretty(http.StatusBadRequest, &errorResponse{err.Error()}, JSON_PRETTY_INDENT)
	}

	switch enc := c.QueryParam("encoding"); enc {
	case "", "raw":
	case "hex":
		if raw, err = hex.DecodeString(strings.Join(strings.Fields(string(raw)), "")); err != nil {
			return c.JSONPretty(http.StatusBadRequest, &errorResponse{fmt.Sprintf("bad hex payload: %v", err)}, JSON_PRETTY_INDENT)
		}
	default:
		return c.JSONPretty(http.StatusBadRequest, &errorResponse{fmt.Sprintf("unknown encoding %q", enc)}, JSON_PRETTY_INDENT)
	}

	dump, err := cc.codec.DecodeDump(raw)
	if err != nil {
		return c.JSONPretty(http.StatusUnprocessableEntity, &errorResponse{err.Error()}, JSON_PRETTY_INDENT)
	}

	resp := &decodeResponse{
		Messages: make([]decodedMessage, 0, len(dump.Messages)),
		Done:     dump.Done,
		Error:    dump.Error,
		Complete: dump.Complete(),
	}
	for _, m := range dump.Messages {
		if v, ok := m.Body.(verbose); ok {
			v.SetVerbosity(cc.verbosity)
		}
		resp.Messages = append(resp.Messages, decodedMessage{
			Family:  cc.codec.FamilyName(m.Header.Type),
			Flags:   cc.codec.Flags(m.Header),
			Message: m,
		})
	}

	return c.JSONPretty(http.StatusOK, resp, JSON_PRETTY_INDENT)
}
