// Package feed keeps the message list fresh over plain request/response.
//
// Reads go through a cache entry stamped with the "messages" tag epoch seen
// before the fetch started. Touching the tag (from the poller or after a
// successful send) advances the epoch, so the next read misses the cache and
// hits the backend again. A backend failure degrades to an empty list rather
// than an error page.
package feed
