package pdshell

// Version is the release of the shell. Release builds override it with -ldflags.
var Version = "0.1.0"
