// Package chat serves the browser chat surface.
//
// Reads go through the feed synchronizer, which serves cached lists until the
// "messages" invalidation tag moves. Sends and the background poller touch
// that tag; pages and fragments are rendered server side and refreshed by
// HTMX polling.
package chat
