// Package logging provides leveled logging for the photo catalog tools.
//
// The level is read once from the environment: DEBUG=1 (or true/yes/on)
// enables debug output, otherwise LOG_LEVEL selects one of debug, info,
// warn or error. The default level is info.
//
// All output goes to stderr so that command output on stdout (batch
// summaries, metadata dumps) stays clean for scripting.
package logging
