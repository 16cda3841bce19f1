// Package pagination keeps an in-memory copy of a cursor-paginated collection
// in sync with GitHub and a local cache.
//
// The Synchronizer owns the ordered user list, the pagination cursor (the ID of
// the last user received) and an in-flight flag. Its lifecycle is:
//
//   - Initialize hydrates the list from the cache once (Cold -> Hydrated).
//   - LoadNext fetches the page after the cursor, appends it, advances the
//     cursor and saves the whole list back to the cache (Idle -> Fetching -> Idle).
//   - ShouldPrefetch tells a presentation layer when to call LoadNext.
//
// At most one fetch is in flight at any time; a LoadNext issued while another
// is running returns immediately with LoadResult.Skipped set. Pages are
// appended as received: overlapping pages produce duplicate entries.
//
// Example usage:
//
//	sync := pagination.New(githubClient, cache.NewStore(backend, cache.DefaultKey))
//	sync.Initialize(ctx)
//	for _, u := range sync.Items() {
//		fmt.Println(u.Login)
//	}
//	if _, err := sync.LoadNext(ctx); err != nil {
//		// report once; the list is unchanged
//	}
package pagination
