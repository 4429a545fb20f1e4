// Package council runs one prompt against several external commands
// ("members") in parallel and tracks their progress through a job
// directory on disk.
//
// A job directory is the only channel between the processes involved:
//
//	<job-dir>/
//	  job.json                    job metadata, written once
//	  prompt.txt                  the dispatched prompt
//	  .wait_cursor                last cursor issued by Wait
//	  members/<slug>/status.json  per-member status record
//	  members/<slug>/output.txt   captured stdout
//	  members/<slug>/error.txt    captured stderr
//
// Dispatch writes the job skeleton and launches one detached worker per
// member. Each worker (RunWorker) is the single writer of its member's
// status.json and replaces it wholesale with an atomic rename, so readers
// such as ComputeStatus and Wait never observe a partial record and need no
// locks.
package council
