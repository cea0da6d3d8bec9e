// Package app provides the application layer of the bot.
//
// Tracker owns the subscription lifecycle and the hub handshake calls,
// Dispatcher answers chat commands, and Delivery verifies hub challenges and
// fans delivered posts out to subscribers. Everything here depends on domain
// interfaces, never on concrete adapters.
package app
