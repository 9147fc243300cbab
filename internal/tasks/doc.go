// Package tasks implements the playlist transformation engine with real-time progress reporting.
//
// # Core Operations
//
// The [Transformer] interface defines four operations, each producing new playlists and never modifying the source:
//
//  1. [Transformer.Merge] : concatenate several playlists
//     - Fetches every selected playlist in order
//     - Keeps duplicates, skips local files
//
//  2. [Transformer.Clean] : replace explicit tracks
//     - Searches for a non-explicit version of each explicit track
//     - Matches exact title/artist first, then fuzzy titles, then fuzzy artists ([IsSimilar])
//     - Drops explicit tracks without a match
//
//  3. [Transformer.Sort] : reorder by a [models.Criterion]
//     - Genre sorting enriches tracks with artist genres first
//
//  4. [Transformer.Split] : one playlist per bucket
//     - Buckets by artist, genre, language heuristic, popularity band or release decade
//     - Drops unknown genre/language buckets and buckets under the minimum size
//
// [Transformer.Dispatch] routes a [models.Request] to one of them.
//
// # Writing
//
// Every operation ends in the playlist writer, which creates the destination playlist and adds URIs in batches of
// up to 100 with a pacing delay between batches. A failing batch aborts with [shared.WriteError].
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for richer output.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// Clean lookups and artist lookups fan out with errgroup and join before the next batch. Search requests go through
// a [services.RequestQueue] created for the operation, so concurrent operations never share a queue.
package tasks
