// Package executor runs configured shell commands to completion.
//
// Every action route maps to one command string executed via
// "/bin/sh -c". Execution is one-shot: no supervision, no restarts, no
// timeout. A command exiting non-zero is a normal, completed outcome:
// the Result carries the diagnostic text and exit code, and the HTTP
// layer still answers 200. Only a failure to start the shell at all
// surfaces as an error.
package executor
