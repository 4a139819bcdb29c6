// Package mongo provides the MongoDB connection helper used by the portal.
//
// Connect retries until the server answers a ping or the attempts are
// exhausted, so the service tolerates the database starting a little later
// than the application container.
package mongo
