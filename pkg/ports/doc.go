/*
Package ports defines the driven ports (interfaces) for the command shell.

These interfaces decouple the shell core from the host application: the live patch
engine, the user-visible console, the script search path and history persistence.

# Key Interfaces

  - Host: Access to the current canvas and global (receiver-addressed) messaging.
  - Canvas: Node traversal, selection state and direct messaging on one canvas.
  - Console: The user-visible log (info and error lines).
  - ScriptLocator: Finds named Lua scripts on a configured search path.
  - HistoryStore: Persists the command history between runs.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
