// Package errors maps reactor failures to stable codes with actionable
// messages for the terminal.
//
// # Error Categories
//
// Errors are organized into categories:
//   - reactive: observation, cycle and procedure failures of the runtime
//   - reconcile: tree shape problems found while patching
//   - protocol: frame and op decoding errors
//   - storage: archive store errors
//   - config: invalid reactor.json
//   - cli: command line usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "R002") that maps to a short message,
// a detailed explanation and a hint.
//
// # Usage
//
//	if err := rt.Flush(); err != nil {
//	    fmt.Fprint(os.Stderr, errors.Classify(err).Format())
//	}
//	// Output:
//	// ERROR R002: Update cycle detected
//	//
//	//   A watcher invalidated itself more times than the update limit
//	//   allows in a single flush. It was skipped for the rest of the flush.
//	//
//	//   Cause: reactive: watcher view (#3) exceeded 100 updates in one flush
//	//
//	//   Hint: Do not write state that the same render reads.
package errors
