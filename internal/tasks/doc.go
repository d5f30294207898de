// Package tasks runs roster operations against durable storage.
//
// # Core Operations
//
// [PairingEngine] is the handle passed to every caller:
//
//  1. [PairingEngine.LoadAll] : Rebuild the roster from storage
//     - Waits for pending writes first
//     - Repairs stored team counts that disagree with memberships
//
//  2. Roster changes : [PairingEngine.AddTeam], [PairingEngine.AddPersonToTeam],
//     [PairingEngine.RemovePersonFromTeam], [PairingEngine.RemovePersonFromAllTeams], [PairingEngine.RemoveTeam]
//     - Each has a side-effect free Can* check for failing fast
//
//  3. [PairingEngine.Generate] : Select one round greedily and record the selections
//
//  4. [PairingEngine.Import] : Apply "team" and "add" lines from a file
//
// # Persistence
//
// Every change is queued on a [Scheduler] as value-copied intents. [Scheduler.Flush] writes the
// whole queue in one transaction; a failure commits nothing, puts the batch back and returns a
// [*StorageError] naming the failing intent. [PairingEngine.Save] retries, paced by a rate limiter.
//
// # Progress Reporting
//
// Imports, loads and saves send [ProgressUpdate] values on an optional channel without blocking.
package tasks
