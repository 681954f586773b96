// Package harness provides conformance testing for decomposition specs.
//
// The harness loads record and extension specs, executes decomposition
// scenarios through the engine, and checks the bindings (or static
// errors) each step produces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	run_id: run-scenario-name
//	specs:
//	  - path/to/records.cue
//	steps:
//	  - name: first_album
//	    type: Album
//	    value: {id: 7, name: Sabaton, asking_price: 9.99, release_date: 1995-10-03}
//	    pattern: (_, name, askingPrice, (hasDate, date))
//	    expect:
//	      bindings: {name: Sabaton, askingPrice: 9.99, hasDate: true, date: 1995-10-03}
//	  - name: favourites
//	    type: map<string,int>
//	    keys: ignore_case
//	    value: {C#: 1, TypeScript: 2}
//	    foreach: true
//	    pattern: (lang, rank)
//	    expect:
//	      iterations:
//	        - {lang: C#, rank: 1}
//	        - {lang: TypeScript, rank: 2}
//	  - name: too_few
//	    type: Album
//	    value: {id: 1, name: x, asking_price: 1}
//	    pattern: (a, b)
//	    expect:
//	      error: ArityMismatch
//
// Steps share one scope, so a step with mode: assign re-populates names
// declared by earlier steps. Expected binding values are decoded against
// the bound name's type and compared structurally; their order must match
// binding order.
//
// # Deterministic Testing
//
// Every scenario runs with:
//   - A static run ID (from run_id, or testutil.DefaultRunID)
//   - Deterministic logical clock (testutil.DeterministicClock)
//   - In-memory SQLite store (isolated per run)
//
// This ensures identical traces across runs for golden file comparison.
package harness
