// Package preflight provides readiness checks for the filesystem paths and
// external programs yt4kids depends on.
//
// These checks run in two contexts:
//   - The queue manager calls RunAll before each download attempt. If any
//     check fails, the tick ends without touching the queue entry so a full
//     disk or a missing binary does not burn retry budget.
//   - The CLI "yt4kids status" command uses the individual check functions
//     (CheckDirectoryAccess, CheckSystemDeps, StorageUsage) to display health.
package preflight
