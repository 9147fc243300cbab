// Package services implements the outbound side of the transformation engine: the Spotify Web API client and the
// request plumbing every call goes through.
//
// # Service Interface
//
// [Service] lists the endpoints the engine uses. [SpotifyClient] implements it over HTTP; tests substitute a fake
// server rather than a mock so the wire format is exercised too.
//
// # Retry Layer
//
// [Retrier] wraps any [Doer] (normally an oauth2 [http.Client] built by [NewHTTPClient]). HTTP 429 responses are
// waited out using Retry-After and do not consume attempts; transport failures back off exponentially and consume
// one attempt each. Once attempts run out the caller receives a [shared.RequestFailedError].
//
// # Request Queue
//
// [RequestQueue] serializes tasks with a minimum delay between dispatches, backed by a [rate.Limiter]. Queues are
// constructed per operation and passed explicitly, never shared process-wide. [Enqueue] is the typed entry point.
//
// # Playlist Resolution
//
// [PlaylistResolver] accepts open.spotify.com links, spotify:playlist: URIs and bare ids, and looks the playlist up
// with the zmb3 client to recover its name.
//
// # Error Handling
//
// Non-2xx responses are returned as [*shared.APIError]. Track fetching wraps every failure in [shared.ErrFetch].
package services
