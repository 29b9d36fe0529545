// Component for caching serialized analysis responses per username within
// the freshness window.
//
// Includes an interface and implementations using redis and in-process
// memory. The HTTP layer consults it before re-scoring a username and
// invalidates an entry when feedback arrives for that account.
package cachestore
