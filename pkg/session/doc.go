/*
Package session manages the shells of concurrent sessions.

Each session owns one pdshell.Shell. Commands for the same session are serialized
with a per-session lock; an optional distributed locker extends the guarantee to
replicas that share state through Redis.
*/
package session
