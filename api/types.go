package api

import (
	"github.com/labstack/echo/v4"
	"github.com/scitags/nlcodec/netlink"
)

const (
	JSON_PRETTY_INDENT string = "    "
)

type rootResponse struct {
	ApiRoutes []*echo.Route `json:"apiRoutes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodedMessage decorates a message with what only the codec knows: the
// family it belongs to and what its flags mean.
type decodedMessage struct {
	Family string          `json:"family"`
	Flags  netlink.FlagSet `json:"flags"`

	*netlink.Message
}

type decodeResponse struct {
	Messages []decodedMessage     `json:"messages"`
	Done     *netlink.Done        `json:"done,omitempty"`
	Error    *netlink.ErrorReport `json:"error,omitempty"`
	Complete bool                 `json:"complete"`
}

// verbose bodies offer several JSON views.
type verbose interface {
	SetVerbosity(string)
}

type extendedContext struct {
	echo.Context
	apiRoutes []*echo.Route
	codec     *netlink.Codec
	verbosity string
}
