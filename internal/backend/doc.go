// Package backend is the typed REST client for the container-management
// backend.
//
// Every call issues exactly one HTTP request and classifies failures into
// three kinds, each testable with errors.As / errors.Is:
//
//   - *TransportError: the request never produced a response;
//   - *StatusError: the backend answered with a non-2xx status;
//   - ErrUnexpectedResponse: a 2xx whose body could not be decoded or whose
//     message does not report success.
//
// The client never retries. Requests are paced by a client-side token
// bucket so that bulk operations do not flood the backend.
package backend
