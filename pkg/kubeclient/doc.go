// Package kubeclient is the runtime every generated client delegates to.
//
// A Client[T] is bound to a Resource (group, version, resource and
// optional subresource), a cluster name and a Transport. It exposes the
// uniform CRUD surface (List, Get, Create, Replace, Delete) plus two
// watch entry points:
//
//   - Watch resumes from a cursor across disconnects and resyncs when the
//     cursor is invalidated by the server, emitting a Reset event first.
//   - WatchForever always starts with a Reset and never gives up on
//     Invalidated or transport failures; only terminal API errors (for
//     example Forbidden) or cancellation of the context end it.
//
// Both watch entry points are pull-based iterators: the transport read
// loop does not advance until the consumer asks for the next event.
package kubeclient
