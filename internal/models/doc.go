// Package models defines the domain types of the playlist transformation engine.
//
// The package contains three categories of types:
//
// 1. Inputs: what a caller hands to the engine
//   - [PlaylistRef] : an {id, name} reference to a source playlist
//   - [PlaylistOptions] : name/visibility/shuffle overrides for created playlists
//   - [Request] : a dispatcher request naming a [Function] and its arguments
//
// 2. Working data: values that live for a single operation
//   - [Track] : flattened playlist item with the metadata sort/split/clean need
//   - [Bucket] : an ordered group of tracks produced by a split
//
// 3. Results: what each transformation reports back
//   - [Playlist], [CleanResult], [SplitResult], [MergeResult]
//
// [Criterion] and [Function] are closed enumerations parsed from their wire names.
package models
