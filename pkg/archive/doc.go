// Package archive stores frame logs.
//
// A frame log is the byte stream a stream.WriterSink produces: encoded
// frames back to back. Stores keep logs as named objects, on disk or in S3.
package archive
