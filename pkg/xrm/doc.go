// Package xrm is a client for a remote business-data service: typed records,
// named requests, paged queries and a ParallelProxy that sends lists of them
// through the batch dispatcher.
//
// The Service is passed in explicitly; there is no ambient "current service".
package xrm
