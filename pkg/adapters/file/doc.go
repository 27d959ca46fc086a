// Package file provides filesystem adapters: a JSON history store and the script
// search path used by the "script" command.
package file
