// Package detail fetches user profiles for many logins in parallel.
//
// The batch fetcher runs a bounded worker pool over a deduplicated login
// queue, with a per-request timeout. Failures for individual logins do not
// stop the batch: successful profiles are returned together with a joined
// error describing every login that failed.
//
// Example:
//
//	fetcher := detail.NewBatchFetcher(githubClient, detail.DefaultConfig())
//	profiles, err := fetcher.FetchAll(ctx, []string{"octocat", "defunkt"})
//	if err != nil {
//	    // partial results are still in profiles
//	}
package detail
