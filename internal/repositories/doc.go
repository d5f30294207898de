// Package repositories implements SQLite persistence for the roster.
//
// Each repository wraps one table and runs against either a *sql.DB or a *sql.Tx through [DBTX],
// so the same code serves reads at startup and the all-or-nothing batches written by a flush.
//
// Key Implementations:
//   - [TeamRepository] : team rows
//   - [PersonRepository] : person rows
//   - [MembershipRepository] : team_person_connection edges
//   - [PairingRepository] : pairing counters keyed by (person1_id, person2_id)
//   - [SequenceRepository] : id high-water marks, only ever raised
//   - [SQLStore] : applies [models.Intent] batches in one transaction and loads snapshots
//
// Ids are never taken from SQLite: every insert carries the id allocated in memory.
package repositories
