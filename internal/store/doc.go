// Package store persists branch snapshots: the named integer counters a
// branch writes on its autosave tick and reads once at startup.
//
// Two backends implement the Store interface. FileStore keeps the legacy
// per-branch text-file layout (data_<branch>/stock.txt and friends) so old
// data directories still load. SQLiteStore keeps one row per counter in a
// single database, replaced transactionally per save. Both round-trip
// counters exactly; which one runs is a configuration choice.
//
// Persistence failures are never fatal to a branch: a failed load falls
// back to default counters, a failed save is retried on the next autosave
// tick.
package store
