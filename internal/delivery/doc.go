// Package delivery drains the session's inbound stream and writes every
// message to the output sink.
//
// The loop is the single flow of control of the subscriber: it blocks on the
// next signal, writes messages, and on a disconnect hands control to the
// session's reconnect routine until the session is restored.
package delivery
