package lspserver

import (
	"context"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/jsonrpc2"
)

// Handler adapts a Server and a Dispatcher to jsonrpc2.Handler, the same
// thin composition xpls/handler.Handler does over its own server and
// dispatcher pair.
type Handler struct {
	log        logging.Logger
	dispatcher *Dispatcher
	server     *Server
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger the Handler's dispatcher reports to;
// the Server keeps the logger it was constructed with.
func WithHandlerLogger(l logging.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

// NewHandler wires server behind a Dispatcher built with the same
// logger.
func NewHandler(server *Server, opts ...HandlerOption) *Handler {
	h := &Handler{
		log:    logging.NewNopLogger(),
		server: server,
	}
	for _, o := range opts {
		o(h)
	}
	h.dispatcher = New(WithLogger(h.log))
	return h
}

// Handle implements jsonrpc2.Handler.
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	h.dispatcher.Dispatch(ctx, h.server, conn, r)
}
