// Package roster holds the in-memory entity model: teams, people and the pairing matrix.
//
// [Store] owns identity and uniqueness. It allocates monotonic ids in-process (persisted only as
// high-water marks) and keeps the team and person sides of every membership in sync.
// [Matrix] owns one [models.Pairing] per unordered pair of people and keeps each pairing's team
// count equal to the number of teams both people share, updated incrementally on every
// membership change.
//
// Every mutation hands its durable writes to a [Scheduler] as [models.Intent] values. A mutating
// call validates everything first, so it either applies all of its in-memory effects and
// schedules its intents, or returns an error without touching state.
//
// Neither type is safe for concurrent use; callers serialize access (see tasks.PairingEngine).
package roster
