/*
Package reconciler settles stores orphaned by a process restart.

The operation lock is in-memory, so a crash mid-provision leaves store
records claiming queued or provisioning with nobody working on them. At
startup, after the API is listening, Run inspects each such store's
namespace once: pods all ready means the install actually finished and
the store is marked ready with its engine URLs; anything else marks it
failed with a message telling the operator to retry. Inspection errors
also settle to failed rather than leaving the record in limbo.

Provisioning is never resumed automatically. Converging the record and
letting a human retry keeps restart behavior predictable.
*/
package reconciler
