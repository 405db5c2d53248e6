// Package stream is a Backend that ships every mutation as protocol ops.
//
// Nodes created through a stream Backend are numeric ids; the backend keeps
// no tree. Ops accumulate until Flush, which writes them as one sequence
// numbered frame to a Sink: a writer (frame log), a websocket connection, or
// a Hub that fans frames out to any number of websocket clients.
//
// On the receiving side a Replayer applies decoded batches onto any other
// Backend, which rebuilds the tree the sender patched.
package stream
