// Package models defines the value types shared by the roster, the pairing generator and the persistence layer.
//
// The package contains three categories of types:
//
// 1. Identity and keys
//   - [TeamID], [PersonID] : monotonic ids allocated in-process, never by the database
//   - [PairKey] : ordered (low, high) composite key; only [NewPairKey] can build one, so low < high always holds
//
// 2. Read views: freshly built values handed out by the roster, never aliases of its internal sets
//   - [Team], [Person] : a team with its member ids, a person with their team ids
//   - [Pairing] : one row of the pairing matrix
//   - [PairView] : the slice of a [Pairing] the generator needs
//   - [Round], [RoundPair] : one generated round
//
// 3. Durable write intents: [Intent] implementations queued by the roster and applied in order by the persistence layer,
// plus the [Snapshot] read back from storage at startup.
package models
