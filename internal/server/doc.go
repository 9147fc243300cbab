// Package server exposes the transformation dispatcher over HTTP.
//
// # Routes
//
//	POST /api/functions  run merge, clean, sort or split for the bearer token's owner
//	GET  /health         liveness probe
//
// The functions endpoint takes the same request the engine's dispatcher does:
//
//	{
//	  "functionType": "sort",
//	  "selectedPlaylists": [{"id": "...", "name": "..."}],
//	  "externalPlaylistLink": "https://open.spotify.com/playlist/...",
//	  "selectedCriteria": "popularity",
//	  "playlistOptions": {"name": "...", "public": false, "shuffle": true}
//	}
//
// Success answers 200 with {"message": "success", "result": ...}. Failures answer {"message": "..."} with
// 400 for invalid input, 401 for missing or rejected credentials, 422 when nothing could be created and 502
// for any other upstream failure.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] method patterns with a [Middleware] stack. Handlers implement [Handler],
// which adds the list of patterns they serve so route definitions stay with the implementation.
package server
