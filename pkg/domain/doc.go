/*
Package domain contains the core models shared by every part of the command shell.

It defines the vocabulary of the shell: the atoms and messages sent to the host patch,
the lightweight object handles returned by the host, the severity-tagged output lines
produced by a dispatch, and the error taxonomy. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Atom: A single message argument, either numeric (float) or symbolic.
  - Message: A selector plus a list of atoms, the unit of communication with the patch.
  - Object: A non-owning handle to a node of the host dataflow graph.
  - Line: One severity-tagged line of console output produced by a command.
*/
package domain
