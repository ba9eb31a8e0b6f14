// Package bot maps chat commands onto the donation service and carries them over Telegram.
package bot

import (
	"context"
	"strings"
)

const msgUnknownCommand = "Unknown command. Use /help to see the available commands."

// Donor is the donation service as seen by the chat surface.
// Implemented by donation.Service.
type Donor interface {
	Start() string
	RegisterKey(chatID int64, base58Secret string) string
	Donate(ctx context.Context, chatID int64) string
	Balance(ctx context.Context, chatID int64) string
	Address(chatID int64) (string, []byte)
	ClearKey(chatID int64) string
}

// Response is the reply to one command
type Response struct {
	Text      string
	Photo     []byte // PNG, sent with Text as caption
	Sensitive bool   // the request carried a secret and must not be kept in the chat
}

const anyArgs = -1

type command struct {
	args      int // exact argument count or anyArgs
	usage     string
	sensitive bool
	run       func(ctx context.Context, chatID int64, args []string) Response
}

// Router dispatches command texts to the donation service
type Router struct {
	commands map[string]command
}

// NewRouter creates the routing table for donor
func NewRouter(donor Donor) *Router {
	start := func(context.Context, int64, []string) Response {
		return Response{Text: donor.Start()}
	}

	return &Router{commands: map[string]command{
		// Deep links arrive as "/start <payload>"
		"/start": {args: anyArgs, run: start},
		"/help":  {args: anyArgs, run: start},
		"/setprivatekey": {
			args:      1,
			usage:     "Usage: /setPrivateKey <private-key>",
			sensitive: true,
			run: func(_ context.Context, chatID int64, args []string) Response {
				return Response{Text: donor.RegisterKey(chatID, args[0])}
			},
		},
		"/donate1sol": {
			usage: "Usage: /donate1Sol",
			run: func(ctx context.Context, chatID int64, _ []string) Response {
				return Response{Text: donor.Donate(ctx, chatID)}
			},
		},
		"/balance": {
			usage: "Usage: /balance",
			run: func(ctx context.Context, chatID int64, _ []string) Response {
				return Response{Text: donor.Balance(ctx, chatID)}
			},
		},
		"/address": {
			usage: "Usage: /address",
			run: func(_ context.Context, chatID int64, _ []string) Response {
				text, png := donor.Address(chatID)
				return Response{Text: text, Photo: png}
			},
		},
		"/clearkey": {
			usage: "Usage: /clearKey",
			run: func(_ context.Context, chatID int64, _ []string) Response {
				return Response{Text: donor.ClearKey(chatID)}
			},
		},
	}}
}

// Dispatch runs the command in text for chatID.
// ok is false when text is not a command; such messages get no reply.
func (r *Router) Dispatch(ctx context.Context, chatID int64, text string) (resp Response, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Response{}, false
	}

	// "/donate1Sol@SomeBot" in group chats
	name, _, _ := strings.Cut(fields[0], "@")
	cmd, found := r.commands[strings.ToLower(name)]
	if !found {
		return Response{Text: msgUnknownCommand}, true
	}

	args := fields[1:]
	if cmd.args != anyArgs && len(args) != cmd.args {
		return Response{Text: cmd.usage, Sensitive: cmd.sensitive}, true
	}

	resp = cmd.run(ctx, chatID, args)
	resp.Sensitive = cmd.sensitive
	return resp, true
}
