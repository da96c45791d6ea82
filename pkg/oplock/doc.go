/*
Package oplock serializes lifecycle operations per store.

A store can have at most one operation (provisioning or deleting) in
flight at a time. API handlers consult the lock before accepting retry
and delete requests, and the provisioner claims it before touching the
cluster, so a duplicate provision call returns quietly instead of racing
the first.

The lock is in-memory and advisory. It does not survive a restart; the
startup reconciler recovers stores that were mid-operation when the
process died.
*/
package oplock
