/*
Package dispatch implements the command dispatcher of the shell.

A command goes through three stages:

 1. Embedded {expression} spans are substituted (see package preprocess).
 2. The text is tokenized, keeping quoted substrings together.
 3. The tokens are dispatched either as a control command (sel, ls, cnv, script, ...,
    or a literal message to a named receiver) or as a message to every selected object.

Execute never fails: every problem becomes an error line in its result. Lua code can
call back into the dispatcher through pd.eval; nesting is bounded by MaxDepth.
*/
package dispatch
